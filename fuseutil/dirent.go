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

// Package fuseutil holds small wire-encoding helpers shared by the driver's
// readdir/readdirplus reply formatting.
package fuseutil

import (
	"unsafe"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// Direntry type constants, as understood by the kernel's dirent struct
// (cf. the DT_* constants in <dirent.h>).
const (
	dtUnknown = 0
	dtFifo    = 1
	dtChr     = 2
	dtDir     = 4
	dtBlk     = 6
	dtReg     = 8
	dtLnk     = 10
	dtSock    = 12
)

func directType(k fuseops.FileKind) uint32 {
	switch k {
	case fuseops.KindRegular:
		return dtReg
	case fuseops.KindDirectory:
		return dtDir
	case fuseops.KindSymlink:
		return dtLnk
	case fuseops.KindBlockDevice:
		return dtBlk
	case fuseops.KindCharDevice:
		return dtChr
	case fuseops.KindNamedPipe:
		return dtFifo
	case fuseops.KindSocket:
		return dtSock
	default:
		return dtUnknown
	}
}

// WriteDirent writes the supplied directory entry into buf in the format
// expected by a FUSE_READDIR reply, returning the number of bytes written.
// It returns zero if the entry does not fit, in which case the caller must
// not advance past this entry.
func WriteDirent(buf []byte, d fuseops.Dirent) (n int) {
	// We want to write bytes with the layout of fuse_dirent
	// (http://goo.gl/BmFxob) in host order. The struct must be aligned
	// according to FUSE_DIRENT_ALIGN (http://goo.gl/UziWvH), which dictates
	// 8-byte alignment.
	type fuseDirent struct {
		ino     uint64
		off     uint64
		namelen uint32
		type_   uint32
		name    [0]byte
	}

	const direntAlignment = 8
	const direntSize = 8 + 8 + 4 + 4

	var padLen int
	if len(d.Name)%direntAlignment != 0 {
		padLen = direntAlignment - (len(d.Name) % direntAlignment)
	}

	totalLen := direntSize + len(d.Name) + padLen
	if totalLen > len(buf) {
		return n
	}

	de := fuseDirent{
		ino:     uint64(d.Inode),
		off:     uint64(d.Offset),
		namelen: uint32(len(d.Name)),
		type_:   directType(d.Kind),
	}

	n += copy(buf[n:], (*[direntSize]byte)(unsafe.Pointer(&de))[:])
	n += copy(buf[n:], d.Name)

	if padLen != 0 {
		var padding [direntAlignment]byte
		n += copy(buf[n:], padding[:padLen])
	}

	return n
}
