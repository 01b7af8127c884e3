package easyfuse

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
)

// FileHandle is the opaque value a handler chooses at open/create/opendir
// time and the driver round-trips through every later operation on that
// open file.
type FileHandle uint64

// FileDescriptor is a signed 32-bit host OS file descriptor.
type FileDescriptor int32

// FileDescriptorFromHandle converts a FileHandle back into a host file
// descriptor, failing if the value does not fit in an int32 — a handler
// that stashed something other than a raw fd in the handle, or a
// corrupted round trip.
func FileDescriptorFromHandle(h FileHandle) (FileDescriptor, error) {
	if h > 0x7fffffff {
		return 0, fmt.Errorf("%w: file handle %d does not fit a file descriptor", ErrInvalidArgument, h)
	}
	return FileDescriptor(h), nil
}

// Handle converts a file descriptor to the FileHandle form the driver
// carries on the wire.
func (fd FileDescriptor) Handle() FileHandle {
	return FileHandle(fd)
}

// FileDescriptorGuard closes the wrapped descriptor exactly once, either
// explicitly via Close or implicitly when the guard is dropped by garbage
// collection having never been released. Release hands ownership back to
// the caller (typically because the fd is being stored in a FileHandle for
// the lifetime of an open file) without closing it.
//
// This is the Go idiom for a scoped close-on-drop guard: call Release once
// ownership has been transferred, or Close to end the scope explicitly.
type FileDescriptorGuard struct {
	mu       sync.Mutex
	fd       FileDescriptor
	released bool
}

// NewFileDescriptorGuard wraps fd for scoped cleanup.
func NewFileDescriptorGuard(fd FileDescriptor) *FileDescriptorGuard {
	g := &FileDescriptorGuard{fd: fd}
	runtime.SetFinalizer(g, (*FileDescriptorGuard).Close)
	return g
}

// FD returns the underlying descriptor without affecting guard state.
func (g *FileDescriptorGuard) FD() FileDescriptor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fd
}

// Release marks the descriptor as owned elsewhere; a subsequent Close is a
// no-op.
func (g *FileDescriptorGuard) Release() FileDescriptor {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = true
	return g.fd
}

// Close closes the descriptor unless it has already been released or
// closed.
func (g *FileDescriptorGuard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil
	}
	g.released = true
	return syscall.Close(int(g.fd))
}
