package easyfuse

import (
	"time"

	"github.com/go-easyfuse/easyfuse/fuseops"
	"github.com/go-easyfuse/easyfuse/internal/fusekernel"
)

// kindToMode packs a FileKind into the high bits of a wire mode the way
// S_IFREG/S_IFDIR/etc. do.
func kindToMode(k fuseops.FileKind) uint32 {
	switch k {
	case fuseops.KindDirectory:
		return 0040000
	case fuseops.KindSymlink:
		return 0120000
	case fuseops.KindBlockDevice:
		return 0060000
	case fuseops.KindCharDevice:
		return 0020000
	case fuseops.KindNamedPipe:
		return 0010000
	case fuseops.KindSocket:
		return 0140000
	default:
		return 0100000
	}
}

// attrToWire converts a FileAttribute into the kernel's wire Attr struct
// for the given inode (spec.md §4.E step 6).
func attrToWire(inode fuseops.Inode, attr fuseops.FileAttribute) fusekernel.Attr {
	dev := fuseops.DeviceType{Kind: attr.Kind}
	if attr.Rdev != 0 {
		dev.Major, dev.Minor = attr.Rdev>>20, attr.Rdev&0xfffff
	}

	return fusekernel.Attr{
		Ino:       uint64(inode),
		Size:      attr.Size,
		Blocks:    attr.Blocks,
		Atime:     uint64(attr.Atime.Unix()),
		Mtime:     uint64(attr.Mtime.Unix()),
		Ctime:     uint64(attr.Ctime.Unix()),
		AtimeNsec: uint32(attr.Atime.Nanosecond()),
		MtimeNsec: uint32(attr.Mtime.Nanosecond()),
		CtimeNsec: uint32(attr.Ctime.Nanosecond()),
		Mode:      kindToMode(attr.Kind) | uint32(attr.Perm.Perm()),
		Nlink:     attr.Nlink,
		UID:       attr.UID,
		GID:       attr.GID,
		Rdev:      attr.Rdev,
		Blksize:   attr.BlockSize,
	}
}

// attrOutFromEntry builds a fusekernel.AttrOut reply for getattr/setattr,
// the "same but without a new lookup" counterpart to entryReply.
func attrOutFromEntry(inode fuseops.Inode, ttl time.Duration, attr fuseops.FileAttribute) fusekernel.AttrOut {
	return fusekernel.AttrOut{
		AttrValid:     uint64(ttl.Seconds()),
		AttrValidNsec: uint32(ttl.Nanoseconds() % 1e9),
		Attr:          attrToWire(inode, attr),
	}
}

// entryOutFromReply builds a fusekernel.EntryOut from an entryReply, the
// shape every entry-producing operation's success path sends.
func entryOutFromReply(r entryReply) fusekernel.EntryOut {
	return buildEntryOut(r.Inode, r.Attr, r.TTL, r.Generation)
}
