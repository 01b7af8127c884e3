package posixfs

import (
	"os"
	"runtime"

	gofallocate "github.com/detailyang/go-fallocate"
	"golang.org/x/sys/unix"

	"github.com/go-easyfuse/easyfuse"
)

// Open opens path under flags, returning a guard that closes the
// descriptor unless Release is called — the Go idiom for
// original_source/src/types/file_descriptor.rs's close-on-drop guard,
// grounded on posix_fs.rs's open.
func Open(path string, flags easyfuse.OpenFlags) (*easyfuse.FileDescriptorGuard, error) {
	fd, err := unix.Open(path, int(flags.Bits()), 0)
	if err != nil {
		return nil, wrapErrno(err)
	}
	return easyfuse.NewFileDescriptorGuard(easyfuse.FileDescriptor(fd)), nil
}

// Create opens path with O_CREAT|O_WRONLY|O_EXCL at mode and returns a
// guard over the new descriptor (callers fetch its attribute with
// GetAttr), grounded on posix_fs.rs's create.
func Create(path string, mode uint32) (*easyfuse.FileDescriptorGuard, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_WRONLY|unix.O_EXCL, mode)
	if err != nil {
		return nil, wrapErrno(err)
	}
	return easyfuse.NewFileDescriptorGuard(easyfuse.FileDescriptor(fd)), nil
}

// Read pread(2)s up to size bytes from fd at offset.
func Read(fd easyfuse.FileDescriptor, offset int64, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	n, err := unix.Pread(int(fd), buf, offset)
	if err != nil {
		return nil, wrapErrno(err)
	}
	return buf[:n], nil
}

// Write pwrite(2)s data to fd at offset.
func Write(fd easyfuse.FileDescriptor, offset int64, data []byte) (uint32, error) {
	n, err := unix.Pwrite(int(fd), data, offset)
	if err != nil {
		return 0, wrapErrno(err)
	}
	return uint32(n), nil
}

// Flush fdatasync(2)s fd, matching posix_fs.rs's flush (which uses
// fdatasync rather than fsync, since flush has no datasync argument of
// its own).
func Flush(fd easyfuse.FileDescriptor) error {
	return wrapErrno(unix.Fdatasync(int(fd)))
}

// Fsync syncs fd's data, and metadata too unless datasync is set.
func Fsync(fd easyfuse.FileDescriptor, datasync bool) error {
	if datasync {
		return wrapErrno(unix.Fdatasync(int(fd)))
	}
	return wrapErrno(unix.Fsync(int(fd)))
}

// Release closes fd directly, for callers that did not go through a
// FileDescriptorGuard (e.g. a handle recovered from a FileHandle at
// release time).
func Release(fd easyfuse.FileDescriptor) error {
	return wrapErrno(unix.Close(int(fd)))
}

// Fallocate preallocates or punches fd's storage via
// github.com/detailyang/go-fallocate, the teacher's own go.mod dependency
// for this concern (SPEC_FULL.md §12).
func Fallocate(fd easyfuse.FileDescriptor, offset, length int64, mode easyfuse.FallocateFlags) error {
	if mode != 0 {
		// go-fallocate only exposes the plain preallocate mode; punch
		// hole/collapse/zero-range variants fall back to the raw
		// syscall, which accepts the mode bits directly.
		return wrapErrno(unix.Fallocate(int(fd), uint32(mode.Bits()), offset, length))
	}
	// os.NewFile's *os.File closes fd on finalization; this wrapper
	// doesn't own fd (the handler does, until release), so the finalizer
	// is cancelled before returning rather than letting a future GC
	// close a descriptor still in use.
	f := os.NewFile(uintptr(fd), "")
	err := gofallocate.Fallocate(f, offset, length)
	runtime.SetFinalizer(f, nil)
	return wrapErrno(err)
}

// Lseek repositions fd per seek, returning the new absolute offset.
func Lseek(fd easyfuse.FileDescriptor, seek easyfuse.SeekFrom) (int64, error) {
	var whence int
	switch seek.Kind {
	case easyfuse.WhenceStart:
		whence = unix.SEEK_SET
	case easyfuse.WhenceCurrent:
		whence = unix.SEEK_CUR
	case easyfuse.WhenceEnd:
		whence = unix.SEEK_END
	}
	n, err := unix.Seek(int(fd), seek.Offset, whence)
	if err != nil {
		return 0, wrapErrno(err)
	}
	return n, nil
}

// CopyFileRange copies up to length bytes between two descriptors at
// independent offsets, grounded on posix_fs.rs's copy_file_range.
func CopyFileRange(fdIn easyfuse.FileDescriptor, offIn int64, fdOut easyfuse.FileDescriptor, offOut int64, length uint64) (uint32, error) {
	n, err := unix.CopyFileRange(int(fdIn), &offIn, int(fdOut), &offOut, int(length), 0)
	if err != nil {
		return 0, wrapErrno(err)
	}
	return uint32(n), nil
}
