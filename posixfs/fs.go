package posixfs

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
)

// ReadLink reads the target of a symlink, grounded on posix_fs.rs's
// readlink.
func ReadLink(path string) (string, error) {
	buf := make([]byte, 1024)
	for {
		n, err := unix.Readlink(path, buf)
		if err != nil {
			return "", wrapErrno(err)
		}
		if n < len(buf) {
			return string(buf[:n]), nil
		}
		buf = make([]byte, len(buf)*2)
	}
}

// MkNod creates a device/fifo/socket node and returns its attribute.
func MkNod(path string, mode uint32, dev fuseops.DeviceType) (fuseops.FileAttribute, error) {
	if err := unix.Mknod(path, mode, int(dev.ToRdev())); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return Lookup(path)
}

// MkDir creates a directory and returns its attribute.
func MkDir(path string, mode uint32) (fuseops.FileAttribute, error) {
	if err := unix.Mkdir(path, mode); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return Lookup(path)
}

// Unlink removes a non-directory directory entry.
func Unlink(path string) error {
	return wrapErrno(unix.Unlink(path))
}

// RmDir removes an empty directory.
func RmDir(path string) error {
	return wrapErrno(unix.Rmdir(path))
}

// Symlink creates a symlink at path pointing at target.
func Symlink(path, target string) (fuseops.FileAttribute, error) {
	if err := unix.Symlink(target, path); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return Lookup(path)
}

// Rename renames oldpath to newpath honoring RENAME_NOREPLACE/EXCHANGE
// flags via renameat2, grounded on posix_fs.rs's rename.
func Rename(oldpath, newpath string, flags easyfuse.RenameFlags) error {
	return wrapErrno(unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, uint(flags.Bits())))
}

// Link creates a hard link at newpath pointing at the same inode as path.
func Link(path, newpath string) (fuseops.FileAttribute, error) {
	if err := unix.Link(path, newpath); err != nil {
		return fuseops.FileAttribute{}, wrapErrno(err)
	}
	return Lookup(newpath)
}

// DirEntry is one entry of a host directory listing.
type DirEntry struct {
	Name string
	Kind fuseops.FileKind
	Attr fuseops.FileAttribute
}

// ReadDir lists path's entries with their file kind, grounded on
// posix_fs.rs's readdir.
func ReadDir(path string) ([]DirEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErrno(err)
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, wrapErrno(err)
	}

	out := make([]DirEntry, 0, len(names))
	for _, name := range names {
		attr, err := Lookup(path + "/" + name)
		if err != nil {
			continue
		}
		out = append(out, DirEntry{Name: name, Kind: attr.Kind, Attr: attr})
	}
	return out, nil
}

// ReadDirPlus is ReadDir, kept as a distinct entry point so a mirror
// handler's ReadDirPlus override reads the same as its ReadDir (both
// already carry full attributes) instead of composing lookup-per-entry
// like the generic default.
func ReadDirPlus(path string) ([]DirEntry, error) {
	return ReadDir(path)
}

// StatFs reports host filesystem geometry for path's containing
// filesystem, grounded on posix_fs.rs's statfs.
func StatFs(path string) (easyfuse.StatFs, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return easyfuse.StatFs{}, wrapErrno(err)
	}
	return easyfuse.StatFs{
		Blocks:          st.Blocks,
		BlocksFree:      st.Bfree,
		BlocksAvailable: st.Bavail,
		Files:           st.Files,
		FilesFree:       st.Ffree,
		BlockSize:       uint32(st.Bsize),
		MaxNameLength:   uint32(st.Namelen),
		FragmentSize:    uint32(st.Frsize),
	}, nil
}

// SetXAttr sets an extended attribute.
func SetXAttr(path, name string, value []byte, flags easyfuse.XattrFlags) error {
	return wrapErrno(unix.Setxattr(path, name, value, int(flags.Bits())))
}

// GetXAttr reads an extended attribute's value into a buffer sized to
// size; callers implementing the two-phase size-probe protocol should
// call with size == 0 to get a length, via a Listxattr-style sizing call,
// then retry with the reported size.
func GetXAttr(path, name string, size uint32) ([]byte, error) {
	if size == 0 {
		n, err := unix.Getxattr(path, name, nil)
		if err != nil {
			return nil, wrapErrno(err)
		}
		return make([]byte, n), nil
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		return nil, wrapErrno(err)
	}
	return buf[:n], nil
}

// ListXAttr lists extended attribute names, NUL-separated, the wire shape
// a listxattr reply carries.
func ListXAttr(path string, size uint32) ([]byte, error) {
	if size == 0 {
		n, err := unix.Listxattr(path, nil)
		if err != nil {
			return nil, wrapErrno(err)
		}
		return make([]byte, n), nil
	}
	buf := make([]byte, size)
	n, err := unix.Listxattr(path, buf)
	if err != nil {
		return nil, wrapErrno(err)
	}
	return buf[:n], nil
}

// RemoveXAttr removes an extended attribute.
func RemoveXAttr(path, name string) error {
	return wrapErrno(unix.Removexattr(path, name))
}

// Access checks path against mask the way access(2) does.
func Access(path string, mask easyfuse.AccessMask) error {
	return wrapErrno(unix.Access(path, mask.Bits()))
}
