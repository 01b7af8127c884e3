// Package fdbridge implements component H's file-descriptor bridge
// handler (spec.md §4.H): a delegation-chain layer that interprets every
// FileHandle it is handed as a raw host file descriptor and answers the
// handle-addressed I/O operations directly against it via posixfs,
// forwarding every other operation to an inner handler unchanged.
//
// Grounded on original_source/src/templates/fd_bridge.rs, which covers
// exactly read/write/flush/fsync/release/fallocate/lseek/
// copy_file_range and nothing else — the same operation set this file
// implements.
package fdbridge

import (
	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
	"github.com/go-easyfuse/easyfuse/posixfs"
)

// FdBridge wraps an inner Handler, answering the handle-addressed I/O
// operations itself (treating every FileHandle as a raw fd) and
// forwarding everything else to Inner. It sits beneath a handler whose
// Open/Create hand out real file descriptors as FileHandle values, such
// as handlers/mirrorfs.MirrorFs, which holds one as its inner handler.
type FdBridge[T easyfuse.Ident] struct {
	Inner easyfuse.Handler[T]
}

// New wraps inner with the fd-bridge I/O operations.
func New[T easyfuse.Ident](inner easyfuse.Handler[T]) *FdBridge[T] {
	return &FdBridge[T]{Inner: inner}
}

func (b *FdBridge[T]) GetInner() easyfuse.Handler[T] { return b.Inner }

func (b *FdBridge[T]) Init(info easyfuse.RequestInfo) error { return b.Inner.Init(info) }
func (b *FdBridge[T]) Destroy(info easyfuse.RequestInfo)    { b.Inner.Destroy(info) }

func (b *FdBridge[T]) Lookup(info easyfuse.RequestInfo, parent T, name string) (easyfuse.Metadata[T], error) {
	return b.Inner.Lookup(info, parent, name)
}
func (b *FdBridge[T]) Forget(info easyfuse.RequestInfo, id T, nlookup uint64) {
	b.Inner.Forget(info, id, nlookup)
}
func (b *FdBridge[T]) GetAttr(info easyfuse.RequestInfo, id T, fh *easyfuse.FileHandle) (fuseops.FileAttribute, error) {
	return b.Inner.GetAttr(info, id, fh)
}
func (b *FdBridge[T]) SetAttr(info easyfuse.RequestInfo, id T, attr easyfuse.SetAttrRequest) (fuseops.FileAttribute, error) {
	return b.Inner.SetAttr(info, id, attr)
}
func (b *FdBridge[T]) ReadLink(info easyfuse.RequestInfo, id T) (string, error) {
	return b.Inner.ReadLink(info, id)
}
func (b *FdBridge[T]) MkNod(info easyfuse.RequestInfo, parent T, name string, mode uint32, dev fuseops.DeviceType, umask uint32) (easyfuse.Metadata[T], error) {
	return b.Inner.MkNod(info, parent, name, mode, dev, umask)
}
func (b *FdBridge[T]) MkDir(info easyfuse.RequestInfo, parent T, name string, mode uint32, umask uint32) (easyfuse.Metadata[T], error) {
	return b.Inner.MkDir(info, parent, name, mode, umask)
}
func (b *FdBridge[T]) Unlink(info easyfuse.RequestInfo, parent T, name string) error {
	return b.Inner.Unlink(info, parent, name)
}
func (b *FdBridge[T]) RmDir(info easyfuse.RequestInfo, parent T, name string) error {
	return b.Inner.RmDir(info, parent, name)
}
func (b *FdBridge[T]) Symlink(info easyfuse.RequestInfo, parent T, name string, target string) (easyfuse.Metadata[T], error) {
	return b.Inner.Symlink(info, parent, name, target)
}
func (b *FdBridge[T]) Rename(info easyfuse.RequestInfo, oldParent T, oldName string, newParent T, newName string, flags easyfuse.RenameFlags) error {
	return b.Inner.Rename(info, oldParent, oldName, newParent, newName, flags)
}
func (b *FdBridge[T]) Link(info easyfuse.RequestInfo, id T, newParent T, newName string) (easyfuse.Metadata[T], error) {
	return b.Inner.Link(info, id, newParent, newName)
}
func (b *FdBridge[T]) Open(info easyfuse.RequestInfo, id T, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	return b.Inner.Open(info, id, flags)
}

// Read treats fh as a raw host file descriptor (spec.md §4.H).
func (b *FdBridge[T]) Read(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, offset int64, size uint32) ([]byte, error) {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return nil, err
	}
	return posixfs.Read(fd, offset, size)
}

func (b *FdBridge[T]) Write(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, offset int64, data []byte, flags uint32) (uint32, error) {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return 0, err
	}
	return posixfs.Write(fd, offset, data)
}

func (b *FdBridge[T]) Flush(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, lockOwner uint64) error {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return err
	}
	return posixfs.Flush(fd)
}

func (b *FdBridge[T]) Release(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, flags easyfuse.OpenFlags, flush bool) error {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return err
	}
	if flush {
		if err := posixfs.Flush(fd); err != nil {
			return err
		}
	}
	return posixfs.Release(fd)
}

func (b *FdBridge[T]) Fsync(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, datasync bool) error {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return err
	}
	return posixfs.Fsync(fd, datasync)
}

func (b *FdBridge[T]) OpenDir(info easyfuse.RequestInfo, id T, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	return b.Inner.OpenDir(info, id, flags)
}
func (b *FdBridge[T]) ReadDir(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle) ([]easyfuse.DirEntry[T], error) {
	return b.Inner.ReadDir(info, id, fh)
}
func (b *FdBridge[T]) ReadDirPlus(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle) ([]easyfuse.DirEntryPlus[T], error) {
	return b.Inner.ReadDirPlus(info, id, fh)
}
func (b *FdBridge[T]) ReleaseDir(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle) error {
	return b.Inner.ReleaseDir(info, id, fh)
}
func (b *FdBridge[T]) FsyncDir(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, datasync bool) error {
	return b.Inner.FsyncDir(info, id, fh, datasync)
}
func (b *FdBridge[T]) StatFs(info easyfuse.RequestInfo, id T) (easyfuse.StatFs, error) {
	return b.Inner.StatFs(info, id)
}
func (b *FdBridge[T]) SetXAttr(info easyfuse.RequestInfo, id T, name string, value []byte, flags easyfuse.XattrFlags) error {
	return b.Inner.SetXAttr(info, id, name, value, flags)
}
func (b *FdBridge[T]) GetXAttr(info easyfuse.RequestInfo, id T, name string, size uint32) ([]byte, error) {
	return b.Inner.GetXAttr(info, id, name, size)
}
func (b *FdBridge[T]) ListXAttr(info easyfuse.RequestInfo, id T, size uint32) ([]byte, error) {
	return b.Inner.ListXAttr(info, id, size)
}
func (b *FdBridge[T]) RemoveXAttr(info easyfuse.RequestInfo, id T, name string) error {
	return b.Inner.RemoveXAttr(info, id, name)
}
func (b *FdBridge[T]) Access(info easyfuse.RequestInfo, id T, mask easyfuse.AccessMask) error {
	return b.Inner.Access(info, id, mask)
}
func (b *FdBridge[T]) Create(info easyfuse.RequestInfo, parent T, name string, mode uint32, flags easyfuse.OpenFlags, umask uint32) (easyfuse.CreateResult[T], error) {
	return b.Inner.Create(info, parent, name, mode, flags, umask)
}
func (b *FdBridge[T]) GetLk(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, lock easyfuse.LockInfo) (easyfuse.LockInfo, error) {
	return b.Inner.GetLk(info, id, fh, lock)
}
func (b *FdBridge[T]) SetLk(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, lock easyfuse.LockInfo, sleep bool) error {
	return b.Inner.SetLk(info, id, fh, lock, sleep)
}
func (b *FdBridge[T]) BMap(info easyfuse.RequestInfo, id T, blockSize uint32, block uint64) (uint64, error) {
	return b.Inner.BMap(info, id, blockSize, block)
}
func (b *FdBridge[T]) Ioctl(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32) (easyfuse.IoctlResult, error) {
	return b.Inner.Ioctl(info, id, fh, cmd, flags, inData, outSize)
}

// Fallocate treats fh as a raw host file descriptor.
func (b *FdBridge[T]) Fallocate(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, offset int64, length int64, mode easyfuse.FallocateFlags) error {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return err
	}
	return posixfs.Fallocate(fd, offset, length, mode)
}

func (b *FdBridge[T]) Lseek(info easyfuse.RequestInfo, id T, fh easyfuse.FileHandle, seek easyfuse.SeekFrom) (int64, error) {
	fd, err := easyfuse.FileDescriptorFromHandle(fh)
	if err != nil {
		return 0, err
	}
	return posixfs.Lseek(fd, seek)
}

func (b *FdBridge[T]) CopyFileRange(info easyfuse.RequestInfo, idIn T, fhIn easyfuse.FileHandle, offIn int64, idOut T, fhOut easyfuse.FileHandle, offOut int64, length uint64, flags uint32) (uint32, error) {
	fdIn, err := easyfuse.FileDescriptorFromHandle(fhIn)
	if err != nil {
		return 0, err
	}
	fdOut, err := easyfuse.FileDescriptorFromHandle(fhOut)
	if err != nil {
		return 0, err
	}
	return posixfs.CopyFileRange(fdIn, offIn, fdOut, offOut, length)
}
