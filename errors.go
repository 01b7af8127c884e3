// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package easyfuse

import (
	"errors"
	"syscall"
)

// ErrorKind is the error type every Handler operation returns. It wraps a
// POSIX errno rather than being one itself, so handler code can carry it
// around as an ordinary Go error while the driver still has a total
// conversion back to a wire errno.
type ErrorKind struct {
	errno syscall.Errno
	msg   string
}

// Error implements the error interface.
func (e ErrorKind) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return e.errno.Error()
}

// Syscall returns the POSIX errno this ErrorKind carries on the wire.
func (e ErrorKind) Syscall() syscall.Errno {
	return e.errno
}

// NewErrorKind builds an ErrorKind from an arbitrary errno, for host
// filesystem errors captured immediately after a failing syscall.
func NewErrorKind(errno syscall.Errno) ErrorKind {
	return ErrorKind{errno: errno}
}

// Named constructors mirror the POSIX errno namespace that matters at the
// FUSE boundary; Syscall() is total over any of these.
var (
	ErrNotExist        = ErrorKind{errno: syscall.ENOENT, msg: "no such file or directory"}
	ErrPermissionDenied = ErrorKind{errno: syscall.EACCES, msg: "permission denied"}
	ErrOperationNotPermitted = ErrorKind{errno: syscall.EPERM, msg: "operation not permitted"}
	ErrExist           = ErrorKind{errno: syscall.EEXIST, msg: "file exists"}
	ErrNotDir          = ErrorKind{errno: syscall.ENOTDIR, msg: "not a directory"}
	ErrIsDir           = ErrorKind{errno: syscall.EISDIR, msg: "is a directory"}
	ErrInvalidArgument = ErrorKind{errno: syscall.EINVAL, msg: "invalid argument"}
	ErrNotEmpty        = ErrorKind{errno: syscall.ENOTEMPTY, msg: "directory not empty"}
	ErrIO              = ErrorKind{errno: syscall.EIO, msg: "input/output error"}
	ErrNotImplemented  = ErrorKind{errno: syscall.ENOSYS, msg: "function not implemented"}
	ErrResultTooLarge  = ErrorKind{errno: syscall.ERANGE, msg: "result too large"}
	ErrNoSpace         = ErrorKind{errno: syscall.ENOSPC, msg: "no space left on device"}
	ErrNoAttr          = ErrorKind{errno: syscall.ENODATA, msg: "no such attribute"}
	ErrTooManyLinks    = ErrorKind{errno: syscall.EMLINK, msg: "too many links"}
	ErrNameTooLong     = ErrorKind{errno: syscall.ENAMETOOLONG, msg: "name too long"}
	ErrStale           = ErrorKind{errno: syscall.ESTALE, msg: "stale file handle"}
	ErrBadFileDescriptor = ErrorKind{errno: syscall.EBADF, msg: "bad file descriptor"}
	ErrInterrupted     = ErrorKind{errno: syscall.EINTR, msg: "interrupted system call"}
)

// errnoOf extracts a raw errno from an arbitrary error, falling back to
// EIO for errors this package did not originate (host-filesystem errors
// should always arrive as an ErrorKind already; this is a defensive
// catch-all for the driver's reply path).
func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var ek ErrorKind
	if errors.As(err, &ek) {
		return ek.errno
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
