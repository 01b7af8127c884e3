package mirrorfs

import (
	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
)

// MirrorFsReadOnly wraps a MirrorFs and rejects every mutating operation
// with ErrPermissionDenied, the Go counterpart of the teacher's
// samples/roloopbackfs: everything that can observe the tree delegates to
// the writable MirrorFs underneath, everything that would change it
// doesn't.
type MirrorFsReadOnly struct {
	inner *MirrorFs
}

// NewReadOnly returns a MirrorFsReadOnly rooted at base.
func NewReadOnly(base string) *MirrorFsReadOnly {
	return &MirrorFsReadOnly{inner: New(base)}
}

func (m *MirrorFsReadOnly) GetInner() easyfuse.Handler[easyfuse.Path] { return m.inner }

func (m *MirrorFsReadOnly) Init(info easyfuse.RequestInfo) error { return m.inner.Init(info) }
func (m *MirrorFsReadOnly) Destroy(info easyfuse.RequestInfo)    { m.inner.Destroy(info) }

func (m *MirrorFsReadOnly) Lookup(info easyfuse.RequestInfo, parent easyfuse.Path, name string) (easyfuse.Metadata[easyfuse.Path], error) {
	return m.inner.Lookup(info, parent, name)
}
func (m *MirrorFsReadOnly) Forget(info easyfuse.RequestInfo, id easyfuse.Path, nlookup uint64) {
	m.inner.Forget(info, id, nlookup)
}
func (m *MirrorFsReadOnly) GetAttr(info easyfuse.RequestInfo, id easyfuse.Path, fh *easyfuse.FileHandle) (fuseops.FileAttribute, error) {
	return m.inner.GetAttr(info, id, fh)
}
func (m *MirrorFsReadOnly) SetAttr(info easyfuse.RequestInfo, id easyfuse.Path, attr easyfuse.SetAttrRequest) (fuseops.FileAttribute, error) {
	return fuseops.FileAttribute{}, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) ReadLink(info easyfuse.RequestInfo, id easyfuse.Path) (string, error) {
	return m.inner.ReadLink(info, id)
}
func (m *MirrorFsReadOnly) MkNod(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, dev fuseops.DeviceType, umask uint32) (easyfuse.Metadata[easyfuse.Path], error) {
	return easyfuse.Metadata[easyfuse.Path]{}, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) MkDir(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, umask uint32) (easyfuse.Metadata[easyfuse.Path], error) {
	return easyfuse.Metadata[easyfuse.Path]{}, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Unlink(info easyfuse.RequestInfo, parent easyfuse.Path, name string) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) RmDir(info easyfuse.RequestInfo, parent easyfuse.Path, name string) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Symlink(info easyfuse.RequestInfo, parent easyfuse.Path, name string, target string) (easyfuse.Metadata[easyfuse.Path], error) {
	return easyfuse.Metadata[easyfuse.Path]{}, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Rename(info easyfuse.RequestInfo, oldParent easyfuse.Path, oldName string, newParent easyfuse.Path, newName string, flags easyfuse.RenameFlags) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Link(info easyfuse.RequestInfo, id easyfuse.Path, newParent easyfuse.Path, newName string) (easyfuse.Metadata[easyfuse.Path], error) {
	return easyfuse.Metadata[easyfuse.Path]{}, easyfuse.ErrPermissionDenied
}

func (m *MirrorFsReadOnly) Open(info easyfuse.RequestInfo, id easyfuse.Path, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	if flags.AccessMode() != easyfuse.OpenReadOnly {
		return easyfuse.OpenResult{}, easyfuse.ErrPermissionDenied
	}
	return m.inner.Open(info, id, flags)
}
func (m *MirrorFsReadOnly) Create(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, flags easyfuse.OpenFlags, umask uint32) (easyfuse.CreateResult[easyfuse.Path], error) {
	return easyfuse.CreateResult[easyfuse.Path]{}, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Read(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, size uint32) ([]byte, error) {
	return m.inner.Read(info, id, fh, offset, size)
}
func (m *MirrorFsReadOnly) Write(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, data []byte, flags uint32) (uint32, error) {
	return 0, easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Flush(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lockOwner uint64) error {
	return m.inner.Flush(info, id, fh, lockOwner)
}
func (m *MirrorFsReadOnly) Release(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, flags easyfuse.OpenFlags, flush bool) error {
	return m.inner.Release(info, id, fh, flags, flush)
}
func (m *MirrorFsReadOnly) Fsync(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, datasync bool) error {
	return m.inner.Fsync(info, id, fh, datasync)
}

func (m *MirrorFsReadOnly) OpenDir(info easyfuse.RequestInfo, id easyfuse.Path, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	return m.inner.OpenDir(info, id, flags)
}
func (m *MirrorFsReadOnly) ReadDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) ([]easyfuse.DirEntry[easyfuse.Path], error) {
	return m.inner.ReadDir(info, id, fh)
}
func (m *MirrorFsReadOnly) ReadDirPlus(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) ([]easyfuse.DirEntryPlus[easyfuse.Path], error) {
	return m.inner.ReadDirPlus(info, id, fh)
}
func (m *MirrorFsReadOnly) ReleaseDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) error {
	return m.inner.ReleaseDir(info, id, fh)
}
func (m *MirrorFsReadOnly) FsyncDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, datasync bool) error {
	return m.inner.FsyncDir(info, id, fh, datasync)
}

func (m *MirrorFsReadOnly) StatFs(info easyfuse.RequestInfo, id easyfuse.Path) (easyfuse.StatFs, error) {
	return m.inner.StatFs(info, id)
}

func (m *MirrorFsReadOnly) SetXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string, value []byte, flags easyfuse.XattrFlags) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) GetXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string, size uint32) ([]byte, error) {
	return m.inner.GetXAttr(info, id, name, size)
}
func (m *MirrorFsReadOnly) ListXAttr(info easyfuse.RequestInfo, id easyfuse.Path, size uint32) ([]byte, error) {
	return m.inner.ListXAttr(info, id, size)
}
func (m *MirrorFsReadOnly) RemoveXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string) error {
	return easyfuse.ErrPermissionDenied
}

func (m *MirrorFsReadOnly) Access(info easyfuse.RequestInfo, id easyfuse.Path, mask easyfuse.AccessMask) error {
	if mask&easyfuse.AccessWrite != 0 {
		return easyfuse.ErrPermissionDenied
	}
	return m.inner.Access(info, id, mask)
}

func (m *MirrorFsReadOnly) GetLk(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lock easyfuse.LockInfo) (easyfuse.LockInfo, error) {
	return m.inner.GetLk(info, id, fh, lock)
}
func (m *MirrorFsReadOnly) SetLk(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lock easyfuse.LockInfo, sleep bool) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) BMap(info easyfuse.RequestInfo, id easyfuse.Path, blockSize uint32, block uint64) (uint64, error) {
	return m.inner.BMap(info, id, blockSize, block)
}
func (m *MirrorFsReadOnly) Ioctl(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32) (easyfuse.IoctlResult, error) {
	return m.inner.Ioctl(info, id, fh, cmd, flags, inData, outSize)
}
func (m *MirrorFsReadOnly) Fallocate(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, length int64, mode easyfuse.FallocateFlags) error {
	return easyfuse.ErrPermissionDenied
}
func (m *MirrorFsReadOnly) Lseek(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, seek easyfuse.SeekFrom) (int64, error) {
	return m.inner.Lseek(info, id, fh, seek)
}
func (m *MirrorFsReadOnly) CopyFileRange(info easyfuse.RequestInfo, idIn easyfuse.Path, fhIn easyfuse.FileHandle, offIn int64, idOut easyfuse.Path, fhOut easyfuse.FileHandle, offOut int64, length uint64, flags uint32) (uint32, error) {
	return 0, easyfuse.ErrPermissionDenied
}
