package posixfs

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
)

// wrapErrno lifts a raw syscall error into an easyfuse.ErrorKind, the
// "host-filesystem errors captured from errno immediately after the
// failing syscall" taxonomy entry in spec.md §7.
func wrapErrno(err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return easyfuse.NewErrorKind(errno)
	}
	return easyfuse.ErrIO
}

func kindFromStatMode(mode uint32) fuseops.FileKind {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return fuseops.KindDirectory
	case unix.S_IFLNK:
		return fuseops.KindSymlink
	case unix.S_IFBLK:
		return fuseops.KindBlockDevice
	case unix.S_IFCHR:
		return fuseops.KindCharDevice
	case unix.S_IFIFO:
		return fuseops.KindNamedPipe
	case unix.S_IFSOCK:
		return fuseops.KindSocket
	default:
		return fuseops.KindRegular
	}
}

// attrFromStat converts a raw unix.Stat_t into a FileAttribute, the Go
// counterpart of posix_fs.rs's convert_stat_struct.
func attrFromStat(st *unix.Stat_t) fuseops.FileAttribute {
	return fuseops.FileAttribute{
		Size:      uint64(st.Size),
		Blocks:    uint64(st.Blocks),
		Atime:     time.Unix(st.Atim.Sec, st.Atim.Nsec),
		Mtime:     time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Ctime:     time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
		Crtime:    time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Kind:      kindFromStatMode(uint32(st.Mode)),
		Perm:      os.FileMode(st.Mode & 0777),
		Nlink:     uint32(st.Nlink),
		UID:       st.Uid,
		GID:       st.Gid,
		Rdev:      uint32(st.Rdev),
		BlockSize: uint32(st.Blksize),
	}
}

// Lookup lstat(2)s path, grounded on posix_fs.rs's lookup — callers that
// want link targets rather than the symlink's own attributes should
// follow up with ReadLink.
func Lookup(path string) (fuseops.FileAttribute, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return attrFromStat(&st), nil
}

// GetAttr fstat(2)s an already-open descriptor.
func GetAttr(fd easyfuse.FileDescriptor) (fuseops.FileAttribute, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(fd), &st); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return attrFromStat(&st), nil
}

// SetAttr applies whichever fields of req are set, following posix_fs.rs's
// setattr: chmod, chown, truncate, then utimensat, in that order, then
// re-Lookup to return the resulting attribute record.
func SetAttr(path string, req easyfuse.SetAttrRequest) (fuseops.FileAttribute, error) {
	if req.Mode != nil {
		if err := unix.Chmod(path, *req.Mode); err != nil {
			return fuseops.FileAttribute{}, wrapErrno(err)
		}
	}

	if req.UID != nil || req.GID != nil {
		uid, gid := -1, -1
		if req.UID != nil {
			uid = int(*req.UID)
		}
		if req.GID != nil {
			gid = int(*req.GID)
		}
		if err := unix.Lchown(path, uid, gid); err != nil {
			return fuseops.FileAttribute{}, wrapErrno(err)
		}
	}

	if req.Size != nil {
		if err := unix.Truncate(path, int64(*req.Size)); err != nil {
			return fuseops.FileAttribute{}, wrapErrno(err)
		}
	}

	if req.Atime != nil && req.Mtime != nil {
		times := []unix.Timespec{
			unix.NsecToTimespec(*req.Atime),
			unix.NsecToTimespec(*req.Mtime),
		}
		if err := unix.UtimesNanoAt(unix.AT_FDCWD, path, times, unix.AT_SYMLINK_NOFOLLOW); err != nil {
			return fuseops.FileAttribute{}, wrapErrno(err)
		}
	}

	return Lookup(path)
}
