package easyfuse

import (
	"github.com/go-easyfuse/easyfuse/fuseops"
)

// OpenResult is what open/opendir return: a handle the driver
// round-trips through every later operation on that file, plus any
// open-response flags the handler wants echoed back (e.g. FOPEN_DIRECT_IO).
type OpenResult struct {
	Handle     FileHandle
	OpenFlags  uint32
}

// CreateResult is OpenResult plus the Metadata for the newly created file,
// per spec.md §4.C's create contract.
type CreateResult[T Ident] struct {
	Handle    FileHandle
	Metadata  Metadata[T]
	OpenFlags uint32
}

// LockInfo is the lock-info tuple a getlk reply carries.
type LockInfo struct {
	Type  fuseops.FileLockType
	PID   uint32
	Start uint64
	End   uint64
}

// IoctlResult is an ioctl reply: a result code plus any output bytes.
type IoctlResult struct {
	Result int32
	Data   []byte
}

// Handler is the operation surface a user filesystem implements (spec.md
// §4.C). It is parameterized over the identity kind so a PathIdentity
// implementation and an InodeIdentity implementation are distinct types at
// compile time; there is no runtime switch between the two conventions.
//
// Every operation takes a RequestInfo first. Operations that can fail
// return an error, which should be an ErrorKind (or wrap one) so the
// driver can recover a POSIX errno; a bare syscall.Errno is passed through
// as is, and any other error is reported as EIO.
//
// GetInner supports the delegation-chain composition pattern: a partial
// handler holds another Handler and returns it from GetInner. Nothing in
// this package forwards to GetInner automatically: DefaultHandler's
// methods never call it, so a layer that delegates an operation calls its
// inner handler explicitly from that method (as handlers/fdbridge does).
type Handler[T Ident] interface {
	// GetInner returns the handler this one delegates to when it has
	// nothing of its own to add for an operation with a neutral default.
	// DefaultHandler's GetInner panics: reaching it means the chain is
	// misconfigured.
	GetInner() Handler[T]

	Init(info RequestInfo) error
	Destroy(info RequestInfo)

	Lookup(info RequestInfo, parent T, name string) (Metadata[T], error)
	Forget(info RequestInfo, id T, nlookup uint64)

	GetAttr(info RequestInfo, id T, fh *FileHandle) (fuseops.FileAttribute, error)
	SetAttr(info RequestInfo, id T, attr SetAttrRequest) (fuseops.FileAttribute, error)

	ReadLink(info RequestInfo, id T) (string, error)
	MkNod(info RequestInfo, parent T, name string, mode uint32, dev fuseops.DeviceType, umask uint32) (Metadata[T], error)
	MkDir(info RequestInfo, parent T, name string, mode uint32, umask uint32) (Metadata[T], error)
	Unlink(info RequestInfo, parent T, name string) error
	RmDir(info RequestInfo, parent T, name string) error
	Symlink(info RequestInfo, parent T, name string, target string) (Metadata[T], error)
	Rename(info RequestInfo, oldParent T, oldName string, newParent T, newName string, flags RenameFlags) error
	Link(info RequestInfo, id T, newParent T, newName string) (Metadata[T], error)

	Open(info RequestInfo, id T, flags OpenFlags) (OpenResult, error)
	Read(info RequestInfo, id T, fh FileHandle, offset int64, size uint32) ([]byte, error)
	Write(info RequestInfo, id T, fh FileHandle, offset int64, data []byte, flags uint32) (uint32, error)
	Flush(info RequestInfo, id T, fh FileHandle, lockOwner uint64) error
	Release(info RequestInfo, id T, fh FileHandle, flags OpenFlags, flush bool) error
	Fsync(info RequestInfo, id T, fh FileHandle, datasync bool) error

	OpenDir(info RequestInfo, id T, flags OpenFlags) (OpenResult, error)
	ReadDir(info RequestInfo, id T, fh FileHandle) ([]DirEntry[T], error)
	ReadDirPlus(info RequestInfo, id T, fh FileHandle) ([]DirEntryPlus[T], error)
	ReleaseDir(info RequestInfo, id T, fh FileHandle) error
	FsyncDir(info RequestInfo, id T, fh FileHandle, datasync bool) error

	StatFs(info RequestInfo, id T) (StatFs, error)

	SetXAttr(info RequestInfo, id T, name string, value []byte, flags XattrFlags) error
	GetXAttr(info RequestInfo, id T, name string, size uint32) ([]byte, error)
	ListXAttr(info RequestInfo, id T, size uint32) ([]byte, error)
	RemoveXAttr(info RequestInfo, id T, name string) error

	Access(info RequestInfo, id T, mask AccessMask) error
	Create(info RequestInfo, parent T, name string, mode uint32, flags OpenFlags, umask uint32) (CreateResult[T], error)

	GetLk(info RequestInfo, id T, fh FileHandle, lock LockInfo) (LockInfo, error)
	SetLk(info RequestInfo, id T, fh FileHandle, lock LockInfo, sleep bool) error

	BMap(info RequestInfo, id T, blockSize uint32, block uint64) (uint64, error)
	Ioctl(info RequestInfo, id T, fh FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32) (IoctlResult, error)

	Fallocate(info RequestInfo, id T, fh FileHandle, offset int64, length int64, mode FallocateFlags) error
	Lseek(info RequestInfo, id T, fh FileHandle, seek SeekFrom) (int64, error)
	CopyFileRange(info RequestInfo, idIn T, fhIn FileHandle, offIn int64, idOut T, fhOut FileHandle, offOut int64, length uint64, flags uint32) (uint32, error)
}

// SetAttrRequest carries only the fields the kernel actually asked to
// change; a nil pointer means "leave as is".
type SetAttrRequest struct {
	Size  *uint64
	Mode  *uint32
	UID   *uint32
	GID   *uint32
	Atime *int64
	Mtime *int64
	FH    *FileHandle
}

// DirEntry is one plain-readdir entry: spec.md's (name, MinimalMetadata).
type DirEntry[T Ident] struct {
	Name string
	Meta MinimalMetadata[T]
}

// DirEntryPlus is one readdirplus entry: spec.md's (name, Metadata).
type DirEntryPlus[T Ident] struct {
	Name string
	Meta Metadata[T]
}
