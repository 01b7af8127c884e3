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

// OpenFlags mirrors the open(2) flag bits carried in an open/create
// request. FromOpenFlagsBits preserves bits this package does not name, so
// a newer kernel's unrecognized flags survive a round trip instead of
// being silently dropped.
type OpenFlags uint32

const (
	OpenReadOnly  OpenFlags = 0x0
	OpenWriteOnly OpenFlags = 0x1
	OpenReadWrite OpenFlags = 0x2
	OpenAppend    OpenFlags = 0x400
	OpenCreate    OpenFlags = 0x40
	OpenExclusive OpenFlags = 0x80
	OpenTruncate  OpenFlags = 0x200
	OpenNonblock  OpenFlags = 0x800
	OpenDirectory OpenFlags = 0x10000
	OpenNoFollow  OpenFlags = 0x20000
	OpenSync      OpenFlags = 0x101000
)

func FromOpenFlagsBits(bits uint32) OpenFlags { return OpenFlags(bits) }
func (f OpenFlags) Bits() uint32              { return uint32(f) }

// AccessMode extracts the O_RDONLY/O_WRONLY/O_RDWR bits, which are not a
// bitmask but a small enumeration packed into the low two bits.
func (f OpenFlags) AccessMode() OpenFlags { return f & 0x3 }

// RenameFlags mirrors the RENAME_* bits accepted by rename2.
type RenameFlags uint32

const (
	RenameNoReplace RenameFlags = 1 << 0
	RenameExchange  RenameFlags = 1 << 1
	RenameWhiteout  RenameFlags = 1 << 2
)

func FromRenameFlagsBits(bits uint32) RenameFlags { return RenameFlags(bits) }
func (f RenameFlags) Bits() uint32                { return uint32(f) }

// AccessMask mirrors the mode bits passed to access(2): F_OK/R_OK/W_OK/X_OK.
type AccessMask uint32

const (
	AccessExists  AccessMask = 0
	AccessRead    AccessMask = 1 << 2
	AccessWrite   AccessMask = 1 << 1
	AccessExecute AccessMask = 1 << 0
)

func FromAccessMaskBits(bits uint32) AccessMask { return AccessMask(bits) }
func (f AccessMask) Bits() uint32                { return uint32(f) }

// XattrFlags mirrors setxattr(2)'s XATTR_CREATE/XATTR_REPLACE flags.
type XattrFlags uint32

const (
	XattrCreate  XattrFlags = 1
	XattrReplace XattrFlags = 2
)

func FromXattrFlagsBits(bits uint32) XattrFlags { return XattrFlags(bits) }
func (f XattrFlags) Bits() uint32               { return uint32(f) }

// FallocateFlags mirrors fallocate(2)'s FALLOC_FL_* bits.
type FallocateFlags uint32

const (
	FallocateKeepSize     FallocateFlags = 0x01
	FallocatePunchHole    FallocateFlags = 0x02
	FallocateCollapseRange FallocateFlags = 0x08
	FallocateZeroRange    FallocateFlags = 0x10
	FallocateInsertRange  FallocateFlags = 0x20
)

func FromFallocateFlagsBits(bits uint32) FallocateFlags { return FallocateFlags(bits) }
func (f FallocateFlags) Bits() uint32                   { return uint32(f) }
