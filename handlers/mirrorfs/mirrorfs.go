// Package mirrorfs implements component H's path-identity filesystem that
// mirrors a host directory tree, the Go counterpart of
// original_source/src/templates/mirror_fs.rs. It is grounded on the
// teacher's samples/roloopbackfs, translated from the old
// fuseops.*Op/fuseutil.FileSystem API to a Handler[easyfuse.Path]
// implementation rooted at a base directory.
package mirrorfs

import (
	"path/filepath"

	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
	"github.com/go-easyfuse/easyfuse/handlers/fdbridge"
	"github.com/go-easyfuse/easyfuse/posixfs"
)

// MirrorFs answers every path-identity operation against files rooted at
// Base on the host filesystem. Open/Create hand back the raw host file
// descriptor as the FileHandle (OpenDir returns a zero handle), so the
// handle-addressed I/O
// operations (read/write/flush/release/fsync/fallocate/lseek/
// copy_file_range) are answered by an embedded fdbridge.FdBridge rather
// than duplicated here.
type MirrorFs struct {
	inner *fdbridge.FdBridge[easyfuse.Path]
	base  string
}

// New returns a MirrorFs rooted at base.
func New(base string) *MirrorFs {
	return &MirrorFs{
		inner: fdbridge.New[easyfuse.Path](easyfuse.NewDefaultHandler[easyfuse.Path]()),
		base:  base,
	}
}

// GetInner returns the fd-bridge layer handling the handle-addressed
// operations this handler does not override.
func (m *MirrorFs) GetInner() easyfuse.Handler[easyfuse.Path] { return m.inner }

// hostPath maps a mirrored Path onto the underlying host filesystem.
func (m *MirrorFs) hostPath(p easyfuse.Path) string {
	if p == "" {
		return m.base
	}
	return filepath.Join(m.base, string(p))
}

func (m *MirrorFs) Init(info easyfuse.RequestInfo) error { return nil }
func (m *MirrorFs) Destroy(info easyfuse.RequestInfo)    {}

func (m *MirrorFs) Lookup(info easyfuse.RequestInfo, parent easyfuse.Path, name string) (easyfuse.Metadata[easyfuse.Path], error) {
	child := parent.Join(name)
	attr, err := posixfs.Lookup(m.hostPath(child))
	if err != nil {
		return easyfuse.Metadata[easyfuse.Path]{}, err
	}
	return easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr}, nil
}

func (m *MirrorFs) Forget(info easyfuse.RequestInfo, id easyfuse.Path, nlookup uint64) {}

func (m *MirrorFs) GetAttr(info easyfuse.RequestInfo, id easyfuse.Path, fh *easyfuse.FileHandle) (fuseops.FileAttribute, error) {
	if fh != nil {
		fd, err := easyfuse.FileDescriptorFromHandle(*fh)
		if err != nil {
			return fuseops.FileAttribute{}, err
		}
		return posixfs.GetAttr(fd)
	}
	return posixfs.Lookup(m.hostPath(id))
}

func (m *MirrorFs) SetAttr(info easyfuse.RequestInfo, id easyfuse.Path, attr easyfuse.SetAttrRequest) (fuseops.FileAttribute, error) {
	return posixfs.SetAttr(m.hostPath(id), attr)
}

func (m *MirrorFs) ReadLink(info easyfuse.RequestInfo, id easyfuse.Path) (string, error) {
	return posixfs.ReadLink(m.hostPath(id))
}

func (m *MirrorFs) MkNod(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, dev fuseops.DeviceType, umask uint32) (easyfuse.Metadata[easyfuse.Path], error) {
	child := parent.Join(name)
	attr, err := posixfs.MkNod(m.hostPath(child), mode&^umask, dev)
	if err != nil {
		return easyfuse.Metadata[easyfuse.Path]{}, err
	}
	return easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr}, nil
}

func (m *MirrorFs) MkDir(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, umask uint32) (easyfuse.Metadata[easyfuse.Path], error) {
	child := parent.Join(name)
	attr, err := posixfs.MkDir(m.hostPath(child), mode&^umask)
	if err != nil {
		return easyfuse.Metadata[easyfuse.Path]{}, err
	}
	return easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr}, nil
}

func (m *MirrorFs) Unlink(info easyfuse.RequestInfo, parent easyfuse.Path, name string) error {
	return posixfs.Unlink(m.hostPath(parent.Join(name)))
}

func (m *MirrorFs) RmDir(info easyfuse.RequestInfo, parent easyfuse.Path, name string) error {
	return posixfs.RmDir(m.hostPath(parent.Join(name)))
}

func (m *MirrorFs) Symlink(info easyfuse.RequestInfo, parent easyfuse.Path, name string, target string) (easyfuse.Metadata[easyfuse.Path], error) {
	child := parent.Join(name)
	attr, err := posixfs.Symlink(m.hostPath(child), target)
	if err != nil {
		return easyfuse.Metadata[easyfuse.Path]{}, err
	}
	return easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr}, nil
}

func (m *MirrorFs) Rename(info easyfuse.RequestInfo, oldParent easyfuse.Path, oldName string, newParent easyfuse.Path, newName string, flags easyfuse.RenameFlags) error {
	return posixfs.Rename(m.hostPath(oldParent.Join(oldName)), m.hostPath(newParent.Join(newName)), flags)
}

func (m *MirrorFs) Link(info easyfuse.RequestInfo, id easyfuse.Path, newParent easyfuse.Path, newName string) (easyfuse.Metadata[easyfuse.Path], error) {
	child := newParent.Join(newName)
	attr, err := posixfs.Link(m.hostPath(id), m.hostPath(child))
	if err != nil {
		return easyfuse.Metadata[easyfuse.Path]{}, err
	}
	return easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr}, nil
}

func (m *MirrorFs) Open(info easyfuse.RequestInfo, id easyfuse.Path, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	guard, err := posixfs.Open(m.hostPath(id), flags)
	if err != nil {
		return easyfuse.OpenResult{}, err
	}
	return easyfuse.OpenResult{Handle: guard.Release().Handle()}, nil
}

func (m *MirrorFs) Create(info easyfuse.RequestInfo, parent easyfuse.Path, name string, mode uint32, flags easyfuse.OpenFlags, umask uint32) (easyfuse.CreateResult[easyfuse.Path], error) {
	child := parent.Join(name)
	guard, err := posixfs.Create(m.hostPath(child), mode&^umask)
	if err != nil {
		return easyfuse.CreateResult[easyfuse.Path]{}, err
	}
	attr, err := posixfs.GetAttr(guard.FD())
	if err != nil {
		guard.Close()
		return easyfuse.CreateResult[easyfuse.Path]{}, err
	}
	return easyfuse.CreateResult[easyfuse.Path]{
		Handle:   guard.Release().Handle(),
		Metadata: easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: attr},
	}, nil
}

func (m *MirrorFs) OpenDir(info easyfuse.RequestInfo, id easyfuse.Path, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	return easyfuse.OpenResult{}, nil
}

func (m *MirrorFs) ReadDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) ([]easyfuse.DirEntry[easyfuse.Path], error) {
	entries, err := posixfs.ReadDir(m.hostPath(id))
	if err != nil {
		return nil, err
	}
	out := make([]easyfuse.DirEntry[easyfuse.Path], 0, len(entries))
	for _, e := range entries {
		out = append(out, easyfuse.DirEntry[easyfuse.Path]{
			Name: e.Name,
			Meta: easyfuse.MinimalMetadata[easyfuse.Path]{ID: id.Join(e.Name), Kind: e.Kind},
		})
	}
	return out, nil
}

func (m *MirrorFs) ReadDirPlus(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) ([]easyfuse.DirEntryPlus[easyfuse.Path], error) {
	entries, err := posixfs.ReadDirPlus(m.hostPath(id))
	if err != nil {
		return nil, err
	}
	out := make([]easyfuse.DirEntryPlus[easyfuse.Path], 0, len(entries))
	for _, e := range entries {
		child := id.Join(e.Name)
		out = append(out, easyfuse.DirEntryPlus[easyfuse.Path]{
			Name: e.Name,
			Meta: easyfuse.Metadata[easyfuse.Path]{ID: child, Attr: e.Attr},
		})
	}
	return out, nil
}

func (m *MirrorFs) ReleaseDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle) error {
	return nil
}
func (m *MirrorFs) FsyncDir(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, datasync bool) error {
	return nil
}

func (m *MirrorFs) StatFs(info easyfuse.RequestInfo, id easyfuse.Path) (easyfuse.StatFs, error) {
	return posixfs.StatFs(m.hostPath(id))
}

func (m *MirrorFs) SetXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string, value []byte, flags easyfuse.XattrFlags) error {
	return posixfs.SetXAttr(m.hostPath(id), name, value, flags)
}
func (m *MirrorFs) GetXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string, size uint32) ([]byte, error) {
	return posixfs.GetXAttr(m.hostPath(id), name, size)
}
func (m *MirrorFs) ListXAttr(info easyfuse.RequestInfo, id easyfuse.Path, size uint32) ([]byte, error) {
	return posixfs.ListXAttr(m.hostPath(id), size)
}
func (m *MirrorFs) RemoveXAttr(info easyfuse.RequestInfo, id easyfuse.Path, name string) error {
	return posixfs.RemoveXAttr(m.hostPath(id), name)
}

func (m *MirrorFs) Access(info easyfuse.RequestInfo, id easyfuse.Path, mask easyfuse.AccessMask) error {
	return posixfs.Access(m.hostPath(id), mask)
}

func (m *MirrorFs) GetLk(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lock easyfuse.LockInfo) (easyfuse.LockInfo, error) {
	return m.inner.GetLk(info, id, fh, lock)
}
func (m *MirrorFs) SetLk(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lock easyfuse.LockInfo, sleep bool) error {
	return m.inner.SetLk(info, id, fh, lock, sleep)
}
func (m *MirrorFs) BMap(info easyfuse.RequestInfo, id easyfuse.Path, blockSize uint32, block uint64) (uint64, error) {
	return m.inner.BMap(info, id, blockSize, block)
}
func (m *MirrorFs) Ioctl(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32) (easyfuse.IoctlResult, error) {
	return m.inner.Ioctl(info, id, fh, cmd, flags, inData, outSize)
}

func (m *MirrorFs) Read(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, size uint32) ([]byte, error) {
	return m.inner.Read(info, id, fh, offset, size)
}
func (m *MirrorFs) Write(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, data []byte, flags uint32) (uint32, error) {
	return m.inner.Write(info, id, fh, offset, data, flags)
}
func (m *MirrorFs) Flush(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, lockOwner uint64) error {
	return m.inner.Flush(info, id, fh, lockOwner)
}
func (m *MirrorFs) Release(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, flags easyfuse.OpenFlags, flush bool) error {
	return m.inner.Release(info, id, fh, flags, flush)
}
func (m *MirrorFs) Fsync(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, datasync bool) error {
	return m.inner.Fsync(info, id, fh, datasync)
}
func (m *MirrorFs) Fallocate(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, offset int64, length int64, mode easyfuse.FallocateFlags) error {
	return m.inner.Fallocate(info, id, fh, offset, length, mode)
}
func (m *MirrorFs) Lseek(info easyfuse.RequestInfo, id easyfuse.Path, fh easyfuse.FileHandle, seek easyfuse.SeekFrom) (int64, error) {
	return m.inner.Lseek(info, id, fh, seek)
}
func (m *MirrorFs) CopyFileRange(info easyfuse.RequestInfo, idIn easyfuse.Path, fhIn easyfuse.FileHandle, offIn int64, idOut easyfuse.Path, fhOut easyfuse.FileHandle, offOut int64, length uint64, flags uint32) (uint32, error) {
	return m.inner.CopyFileRange(info, idIn, fhIn, offIn, idOut, fhOut, offOut, length, flags)
}
