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

// Package fusekernel holds the raw FUSE wire-protocol opcodes and ABI
// structs. Nothing here knows about identities, scheduling, or handlers;
// it is the boundary spec.md §1 calls "the kernel FUSE transport itself",
// consumed as a service by the driver rather than implemented by it. We
// target protocol 7.31+ only (the range every still-maintained kernel
// speaks), so unlike the teacher we don't carry per-version compat sizes.
package fusekernel

// Opcode identifies a FUSE request as read off the wire.
type Opcode uint32

const (
	OpLookup      Opcode = 1
	OpForget      Opcode = 2 // No reply.
	OpGetattr     Opcode = 3
	OpSetattr     Opcode = 4
	OpReadlink    Opcode = 5
	OpSymlink     Opcode = 6
	OpMknod       Opcode = 8
	OpMkdir       Opcode = 9
	OpUnlink      Opcode = 10
	OpRmdir       Opcode = 11
	OpRename      Opcode = 12
	OpLink        Opcode = 13
	OpOpen        Opcode = 14
	OpRead        Opcode = 15
	OpWrite       Opcode = 16
	OpStatfs      Opcode = 17
	OpRelease     Opcode = 18
	OpFsync       Opcode = 20
	OpSetxattr    Opcode = 21
	OpGetxattr    Opcode = 22
	OpListxattr   Opcode = 23
	OpRemovexattr Opcode = 24
	OpFlush       Opcode = 25
	OpInit        Opcode = 26
	OpOpendir     Opcode = 27
	OpReaddir     Opcode = 28
	OpReleasedir  Opcode = 29
	OpFsyncdir    Opcode = 30
	OpGetlk       Opcode = 31
	OpSetlk       Opcode = 32
	OpSetlkw      Opcode = 33
	OpAccess      Opcode = 34
	OpCreate      Opcode = 35
	OpInterrupt   Opcode = 36
	OpBmap        Opcode = 37
	OpDestroy     Opcode = 38
	OpIoctl       Opcode = 39
	OpRename2     Opcode = 45
	OpLseek       Opcode = 46
	OpCopyFileRng Opcode = 47
	OpReaddirplus Opcode = 44
	OpFallocate   Opcode = 43
)

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "unknown opcode"
}

var opcodeNames = map[Opcode]string{
	OpLookup: "LOOKUP", OpForget: "FORGET", OpGetattr: "GETATTR",
	OpSetattr: "SETATTR", OpReadlink: "READLINK", OpSymlink: "SYMLINK",
	OpMknod: "MKNOD", OpMkdir: "MKDIR", OpUnlink: "UNLINK", OpRmdir: "RMDIR",
	OpRename: "RENAME", OpLink: "LINK", OpOpen: "OPEN", OpRead: "READ",
	OpWrite: "WRITE", OpStatfs: "STATFS", OpRelease: "RELEASE",
	OpFsync: "FSYNC", OpSetxattr: "SETXATTR", OpGetxattr: "GETXATTR",
	OpListxattr: "LISTXATTR", OpRemovexattr: "REMOVEXATTR", OpFlush: "FLUSH",
	OpInit: "INIT", OpOpendir: "OPENDIR", OpReaddir: "READDIR",
	OpReleasedir: "RELEASEDIR", OpFsyncdir: "FSYNCDIR", OpGetlk: "GETLK",
	OpSetlk: "SETLK", OpSetlkw: "SETLKW", OpAccess: "ACCESS",
	OpCreate: "CREATE", OpInterrupt: "INTERRUPT", OpBmap: "BMAP",
	OpDestroy: "DESTROY", OpIoctl: "IOCTL", OpRename2: "RENAME2",
	OpLseek: "LSEEK", OpCopyFileRng: "COPY_FILE_RANGE",
	OpReaddirplus: "READDIRPLUS", OpFallocate: "FALLOCATE",
}

// RootID is the node ID of the mount's root, fixed by the protocol.
const RootID = 1

// InHeader precedes every request the kernel sends.
type InHeader struct {
	Len     uint32
	Opcode  Opcode
	Unique  uint64
	NodeID  uint64
	UID     uint32
	GID     uint32
	PID     uint32
	Padding uint32
}

// OutHeader precedes every reply we send.
type OutHeader struct {
	Len    uint32
	Error  int32
	Unique uint64
}

// Attr mirrors struct fuse_attr.
type Attr struct {
	Ino       uint64
	Size      uint64
	Blocks    uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	Nlink     uint32
	UID       uint32
	GID       uint32
	Rdev      uint32
	Blksize   uint32
	Padding   uint32
}

// EntryOut mirrors struct fuse_entry_out, the reply shape for
// lookup/mknod/mkdir/symlink/link.
type EntryOut struct {
	Nodeid         uint64
	Generation     uint64
	EntryValid     uint64
	AttrValid      uint64
	EntryValidNsec uint32
	AttrValidNsec  uint32
	Attr           Attr
}

// AttrOut mirrors struct fuse_attr_out, the reply shape for
// getattr/setattr.
type AttrOut struct {
	AttrValid     uint64
	AttrValidNsec uint32
	Dummy         uint32
	Attr          Attr
}

// OpenOut mirrors struct fuse_open_out.
type OpenOut struct {
	Fh        uint64
	OpenFlags uint32
	Padding   uint32
}

// StatfsOut mirrors struct fuse_kstatfs.
type StatfsOut struct {
	Blocks, Bfree, Bavail   uint64
	Files, Ffree            uint64
	Bsize, Namelen, Frsize  uint32
	Padding                 uint32
	Spare                   [6]uint32
}

// LkOut mirrors struct fuse_lk_out.
type LkOut struct {
	Type  uint32
	Pid   uint32
	Start uint64
	End   uint64
}

// WriteOut mirrors struct fuse_write_out.
type WriteOut struct {
	Size    uint32
	Padding uint32
}

// GetxattrOut mirrors struct fuse_getxattr_out, the size-probe reply for
// getxattr/listxattr when the request's Size field is zero.
type GetxattrOut struct {
	Size    uint32
	Padding uint32
}

// LseekOut mirrors struct fuse_lseek_out.
type LseekOut struct {
	Offset uint64
}

// BmapOut mirrors struct fuse_bmap_out.
type BmapOut struct {
	Block uint64
}

// Dirent mirrors struct fuse_dirent's fixed header.
type Dirent struct {
	Ino     uint64
	Off     uint64
	Namelen uint32
	Type    uint32
}

// The In structs below mirror the fixed-size portion of each request's
// argument struct; any trailing variable-length data (a name, an xattr
// value, write payload bytes) follows immediately after in the message
// and is consumed separately by InMessage.ConsumeBytes.

type InitIn struct {
	Major, Minor               uint32
	MaxReadahead                uint32
	Flags                        uint32
}

type InitOut struct {
	Major, Minor         uint32
	MaxReadahead          uint32
	Flags                 uint32
	MaxBackground         uint16
	CongestionThreshold   uint16
	MaxWrite              uint32
	TimeGran              uint32
	MaxPages              uint16
	Padding               uint16
	Unused                [8]uint32
}

type MknodIn struct {
	Mode, Rdev, Umask, Padding uint32
}

type MkdirIn struct {
	Mode, Umask uint32
}

type RenameIn struct {
	Newdir uint64
}

type Rename2In struct {
	Newdir  uint64
	Flags   uint32
	Padding uint32
}

type LinkIn struct {
	Oldnodeid uint64
}

type SetattrIn struct {
	Valid     uint32
	Padding   uint32
	Fh        uint64
	Size      uint64
	LockOwner uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	Unused4   uint32
	UID       uint32
	GID       uint32
	Unused5   uint32
}

const (
	SetattrMode  = 1 << 0
	SetattrUID   = 1 << 1
	SetattrGID   = 1 << 2
	SetattrSize  = 1 << 3
	SetattrAtime = 1 << 4
	SetattrMtime = 1 << 5
	SetattrFh    = 1 << 6
)

type OpenIn struct {
	Flags  uint32
	Unused uint32
}

type CreateIn struct {
	Flags uint32
	Mode  uint32
	Umask uint32
	Padding uint32
}

type ReadIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	ReadFlags  uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

type WriteIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	WriteFlags uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

type ReleaseIn struct {
	Fh           uint64
	Flags        uint32
	ReleaseFlags uint32
	LockOwner    uint64
}

type FlushIn struct {
	Fh        uint64
	Unused    uint32
	Padding   uint32
	LockOwner uint64
}

type FsyncIn struct {
	Fh         uint64
	FsyncFlags uint32
	Padding    uint32
}

type GetxattrIn struct {
	Size    uint32
	Padding uint32
}

type SetxattrIn struct {
	Size    uint32
	Flags   uint32
}

type AccessIn struct {
	Mask    uint32
	Padding uint32
}

type LkIn struct {
	Fh      uint64
	Owner   uint64
	Lk      FileLock
	LkFlags uint32
	Padding uint32
}

type FileLock struct {
	Start uint64
	End   uint64
	Type  uint32
	Pid   uint32
}

type BmapIn struct {
	Block     uint64
	Blocksize uint32
	Padding   uint32
}

type IoctlIn struct {
	Fh      uint64
	Flags   uint32
	Cmd     uint32
	Arg     uint64
	InSize  uint32
	OutSize uint32
}

type FallocateIn struct {
	Fh      uint64
	Offset  uint64
	Length  uint64
	Mode    uint32
	Padding uint32
}

type LseekIn struct {
	Fh      uint64
	Offset  uint64
	Whence  uint32
	Padding uint32
}

type CopyFileRangeIn struct {
	FhIn    uint64
	OffIn   uint64
	NodeidOut uint64
	FhOut   uint64
	OffOut  uint64
	Len     uint64
	Flags   uint64
}

type ForgetIn struct {
	Nlookup uint64
}
