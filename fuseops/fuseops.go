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

// Package fuseops holds the plain value types shared by the kernel wire
// translation and the high-level driver: inode identifiers, file kinds,
// attributes and the wire-facing directory entry shape. It has no
// dependency on the rest of this module so that both internal/fusekernel
// and the root package can import it without a cycle.
package fuseops

import (
	"fmt"
	"os"
	"time"
)

// Inode is the kernel-assigned 64-bit file identifier. The value 1 is
// reserved for the mount's root and is never evicted.
type Inode uint64

// RootInode is the inode the kernel always uses to refer to the root of
// the mounted file system.
const RootInode Inode = 1

// FileKind enumerates the FUSE-recognized file types.
type FileKind int

const (
	KindRegular FileKind = iota
	KindDirectory
	KindSymlink
	KindBlockDevice
	KindCharDevice
	KindNamedPipe
	KindSocket
)

func (k FileKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindBlockDevice:
		return "block device"
	case KindCharDevice:
		return "char device"
	case KindNamedPipe:
		return "named pipe"
	case KindSocket:
		return "socket"
	default:
		return fmt.Sprintf("FileKind(%d)", int(k))
	}
}

// DeviceType is a tagged variant over the device flavors the kernel's rdev
// field can encode, plus the non-device kinds (regular, directory,
// symlink, pipe, socket) that carry no major/minor pair. There is no
// unknown variant: DeviceTypeFromMode reports ok == false instead.
type DeviceType struct {
	Kind         FileKind
	Major, Minor uint32
}

// RegularDevice, DirDevice and SymlinkDevice are the zero-major/minor
// DeviceType values for kinds that carry no device number.
var (
	RegularDevice = DeviceType{Kind: KindRegular}
	DirDevice     = DeviceType{Kind: KindDirectory}
	SymlinkDevice = DeviceType{Kind: KindSymlink}
	PipeDevice    = DeviceType{Kind: KindNamedPipe}
	SocketDevice  = DeviceType{Kind: KindSocket}
)

// BlockDevice and CharDevice build a DeviceType for a major/minor pair.
func BlockDevice(major, minor uint32) DeviceType {
	return DeviceType{Kind: KindBlockDevice, Major: major, Minor: minor}
}

func CharDevice(major, minor uint32) DeviceType {
	return DeviceType{Kind: KindCharDevice, Major: major, Minor: minor}
}

// packRdev puts major in the bits above bit 20 and minor in the low 20
// bits. This is a stable bijection for major < 4096 and minor < 1<<20,
// not the kernel's exact major/minor packing.
func packRdev(major, minor uint32) uint32 {
	return (major << 20) | (minor & 0xfffff)
}

func unpackRdev(rdev uint32) (major, minor uint32) {
	return rdev >> 20, rdev & 0xfffff
}

// ToRdev converts a DeviceType to the packed rdev value the kernel expects
// for mknod-created block/char devices. Non-device kinds return 0.
func (d DeviceType) ToRdev() uint32 {
	switch d.Kind {
	case KindBlockDevice, KindCharDevice:
		return packRdev(d.Major, d.Minor)
	default:
		return 0
	}
}

// DeviceTypeFromMode reconstructs a DeviceType from a mknod(2)-style mode
// and rdev pair. It fails (ok == false) for a mode bearing no file-type
// bits this package recognizes.
func DeviceTypeFromMode(mode os.FileMode, rdev uint32) (d DeviceType, ok bool) {
	major, minor := unpackRdev(rdev)
	switch {
	case mode&os.ModeDir != 0:
		return DirDevice, true
	case mode&os.ModeSymlink != 0:
		return SymlinkDevice, true
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice != 0:
		return CharDevice(major, minor), true
	case mode&os.ModeDevice != 0:
		return BlockDevice(major, minor), true
	case mode&os.ModeNamedPipe != 0:
		return PipeDevice, true
	case mode&os.ModeSocket != 0:
		return SocketDevice, true
	case mode.IsRegular():
		return RegularDevice, true
	default:
		return DeviceType{}, false
	}
}

// FileAttribute is the full attribute record the driver converts to and
// from the kernel's wire Attr struct.
type FileAttribute struct {
	Size       uint64
	Blocks     uint64
	Atime      time.Time
	Mtime      time.Time
	Ctime      time.Time
	Crtime     time.Time // OS X only; ignored elsewhere.
	Kind       FileKind
	Perm       os.FileMode // Permission bits only; Kind carries the type.
	Nlink      uint32
	UID, GID   uint32
	Rdev       uint32
	BlockSize  uint32
	Flags      uint32 // Platform-specific flags (OS X's st_flags).

	// TTL is how long the kernel may cache this attribute. A zero value
	// means "use the driver's default" (see easyfuse.DefaultTTL).
	TTL time.Duration

	// Generation must be non-zero and must change if Inode is reused. A
	// zero value tells the driver to derive one (see §4.E in spec.md).
	Generation uint64
}

// Dirent is a single wire-ready directory entry, the shape
// fuseutil.WriteDirent consumes.
type Dirent struct {
	Inode  Inode
	Offset int64
	Name   string
	Kind   FileKind
}

// FileLockType is the POSIX lock flavor carried by getlk/setlk/setlkw,
// independent of however the host platform happens to number F_RDLCK et
// al. in fcntl.h.
type FileLockType int

const (
	LockRead FileLockType = iota
	LockWrite
	LockUnlock
)

func (t FileLockType) String() string {
	switch t {
	case LockRead:
		return "read"
	case LockWrite:
		return "write"
	case LockUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("FileLockType(%d)", int(t))
	}
}
