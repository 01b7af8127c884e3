package easyfuse

import "github.com/go-easyfuse/easyfuse/fuseops"

// DefaultHandler is the terminal handler in a delegation chain (spec.md
// §4.D). Every operation returns ErrNotImplemented except init, destroy,
// opendir, releasedir, fsyncdir and statfs, which succeed trivially;
// GetInner panics, since reaching the bottom of the chain with an
// operation still unhandled means the composition above it is missing a
// method it needs to override.
//
// panicOnUnimplemented makes every operation that would otherwise return
// ErrNotImplemented panic instead (readdirplus included, so the Driver's
// readdir+lookup composition never runs under it), for use in tests that
// want to catch an accidentally-unimplemented operation immediately rather
// than observing an ENOSYS deep in a test harness. The neutral successes
// listed above are unaffected.
type DefaultHandler[T Ident] struct {
	panicOnUnimplemented bool
}

// NewDefaultHandler returns a DefaultHandler whose unimplemented
// operations reply with ErrNotImplemented.
func NewDefaultHandler[T Ident]() *DefaultHandler[T] {
	return &DefaultHandler[T]{}
}

// NewStrictDefaultHandler returns a variant that panics instead of
// returning ErrNotImplemented for every unimplemented operation, intended
// for tests exercising a handler under construction.
func NewStrictDefaultHandler[T Ident]() *DefaultHandler[T] {
	return &DefaultHandler[T]{panicOnUnimplemented: true}
}

func (h *DefaultHandler[T]) GetInner() Handler[T] {
	panic("easyfuse: DefaultHandler has no inner handler; the delegation chain above it is missing an override")
}

func (h *DefaultHandler[T]) unimplemented(op string) error {
	if h.panicOnUnimplemented {
		panic("easyfuse: unimplemented operation " + op)
	}
	return ErrNotImplemented
}

func (h *DefaultHandler[T]) Init(info RequestInfo) error  { return nil }
func (h *DefaultHandler[T]) Destroy(info RequestInfo)     {}

func (h *DefaultHandler[T]) Lookup(info RequestInfo, parent T, name string) (Metadata[T], error) {
	return Metadata[T]{}, h.unimplemented("lookup")
}
func (h *DefaultHandler[T]) Forget(info RequestInfo, id T, nlookup uint64) {}

func (h *DefaultHandler[T]) GetAttr(info RequestInfo, id T, fh *FileHandle) (fuseops.FileAttribute, error) {
	return fuseops.FileAttribute{}, h.unimplemented("getattr")
}
func (h *DefaultHandler[T]) SetAttr(info RequestInfo, id T, attr SetAttrRequest) (fuseops.FileAttribute, error) {
	return fuseops.FileAttribute{}, h.unimplemented("setattr")
}

func (h *DefaultHandler[T]) ReadLink(info RequestInfo, id T) (string, error) {
	return "", h.unimplemented("readlink")
}
func (h *DefaultHandler[T]) MkNod(info RequestInfo, parent T, name string, mode uint32, dev fuseops.DeviceType, umask uint32) (Metadata[T], error) {
	return Metadata[T]{}, h.unimplemented("mknod")
}
func (h *DefaultHandler[T]) MkDir(info RequestInfo, parent T, name string, mode uint32, umask uint32) (Metadata[T], error) {
	return Metadata[T]{}, h.unimplemented("mkdir")
}
func (h *DefaultHandler[T]) Unlink(info RequestInfo, parent T, name string) error {
	return h.unimplemented("unlink")
}
func (h *DefaultHandler[T]) RmDir(info RequestInfo, parent T, name string) error {
	return h.unimplemented("rmdir")
}
func (h *DefaultHandler[T]) Symlink(info RequestInfo, parent T, name string, target string) (Metadata[T], error) {
	return Metadata[T]{}, h.unimplemented("symlink")
}
func (h *DefaultHandler[T]) Rename(info RequestInfo, oldParent T, oldName string, newParent T, newName string, flags RenameFlags) error {
	return h.unimplemented("rename")
}
func (h *DefaultHandler[T]) Link(info RequestInfo, id T, newParent T, newName string) (Metadata[T], error) {
	return Metadata[T]{}, h.unimplemented("link")
}

func (h *DefaultHandler[T]) Open(info RequestInfo, id T, flags OpenFlags) (OpenResult, error) {
	return OpenResult{}, h.unimplemented("open")
}
func (h *DefaultHandler[T]) Read(info RequestInfo, id T, fh FileHandle, offset int64, size uint32) ([]byte, error) {
	return nil, h.unimplemented("read")
}
func (h *DefaultHandler[T]) Write(info RequestInfo, id T, fh FileHandle, offset int64, data []byte, flags uint32) (uint32, error) {
	return 0, h.unimplemented("write")
}
func (h *DefaultHandler[T]) Flush(info RequestInfo, id T, fh FileHandle, lockOwner uint64) error {
	return h.unimplemented("flush")
}
func (h *DefaultHandler[T]) Release(info RequestInfo, id T, fh FileHandle, flags OpenFlags, flush bool) error {
	return h.unimplemented("release")
}
func (h *DefaultHandler[T]) Fsync(info RequestInfo, id T, fh FileHandle, datasync bool) error {
	return h.unimplemented("fsync")
}

func (h *DefaultHandler[T]) OpenDir(info RequestInfo, id T, flags OpenFlags) (OpenResult, error) {
	return OpenResult{}, nil
}
func (h *DefaultHandler[T]) ReadDir(info RequestInfo, id T, fh FileHandle) ([]DirEntry[T], error) {
	return nil, h.unimplemented("readdir")
}
// ReadDirPlus returns ErrNotImplemented here: spec.md §4.C's documented
// default ("composes readdir + per-entry lookup") needs the true
// top-of-chain handler to call back into, which a DefaultHandler receiver
// never has access to under Go's embedding rules. The Driver performs
// that composition itself (see Driver.composeReadDirPlus in
// driver_readdir.go) whenever it sees this exact error come back from a
// handler's ReadDirPlus, so the spec's default still takes effect for any
// handler that implements ReadDir and Lookup but leaves ReadDirPlus to
// this default.
func (h *DefaultHandler[T]) ReadDirPlus(info RequestInfo, id T, fh FileHandle) ([]DirEntryPlus[T], error) {
	return nil, h.unimplemented("readdirplus")
}
func (h *DefaultHandler[T]) ReleaseDir(info RequestInfo, id T, fh FileHandle) error { return nil }
func (h *DefaultHandler[T]) FsyncDir(info RequestInfo, id T, fh FileHandle, datasync bool) error {
	return nil
}

func (h *DefaultHandler[T]) StatFs(info RequestInfo, id T) (StatFs, error) {
	return DefaultStatFs(), nil
}

func (h *DefaultHandler[T]) SetXAttr(info RequestInfo, id T, name string, value []byte, flags XattrFlags) error {
	return h.unimplemented("setxattr")
}
func (h *DefaultHandler[T]) GetXAttr(info RequestInfo, id T, name string, size uint32) ([]byte, error) {
	return nil, h.unimplemented("getxattr")
}
func (h *DefaultHandler[T]) ListXAttr(info RequestInfo, id T, size uint32) ([]byte, error) {
	return nil, h.unimplemented("listxattr")
}
func (h *DefaultHandler[T]) RemoveXAttr(info RequestInfo, id T, name string) error {
	return h.unimplemented("removexattr")
}

func (h *DefaultHandler[T]) Access(info RequestInfo, id T, mask AccessMask) error {
	return h.unimplemented("access")
}
func (h *DefaultHandler[T]) Create(info RequestInfo, parent T, name string, mode uint32, flags OpenFlags, umask uint32) (CreateResult[T], error) {
	return CreateResult[T]{}, h.unimplemented("create")
}

func (h *DefaultHandler[T]) GetLk(info RequestInfo, id T, fh FileHandle, lock LockInfo) (LockInfo, error) {
	return LockInfo{}, h.unimplemented("getlk")
}
func (h *DefaultHandler[T]) SetLk(info RequestInfo, id T, fh FileHandle, lock LockInfo, sleep bool) error {
	return h.unimplemented("setlk")
}

func (h *DefaultHandler[T]) BMap(info RequestInfo, id T, blockSize uint32, block uint64) (uint64, error) {
	return 0, h.unimplemented("bmap")
}
func (h *DefaultHandler[T]) Ioctl(info RequestInfo, id T, fh FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32) (IoctlResult, error) {
	return IoctlResult{}, h.unimplemented("ioctl")
}

func (h *DefaultHandler[T]) Fallocate(info RequestInfo, id T, fh FileHandle, offset int64, length int64, mode FallocateFlags) error {
	return h.unimplemented("fallocate")
}
func (h *DefaultHandler[T]) Lseek(info RequestInfo, id T, fh FileHandle, seek SeekFrom) (int64, error) {
	return 0, h.unimplemented("lseek")
}
func (h *DefaultHandler[T]) CopyFileRange(info RequestInfo, idIn T, fhIn FileHandle, offIn int64, idOut T, fhOut FileHandle, offOut int64, length uint64, flags uint32) (uint32, error) {
	return 0, h.unimplemented("copy_file_range")
}
