// Command hello mounts a fixed, read-only two-file tree, the Go
// counterpart of the teacher's samples/hellofs + samples/mount_hello:
//
//	hello
//	dir/
//	    world
//
// Both files contain "Hello, world!". It uses InodeIdentity mode with a
// hand-rolled fixed inode table, since there is no dynamic tree to
// reconstruct paths for.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/jacobsa/timeutil"

	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/fuseops"
)

var (
	fMountPoint = flag.String("mount_point", "", "Path to mount point.")
	fDebug      = flag.Bool("debug", false, "Enable debug logging.")
)

const contents = "Hello, world!"

const (
	rootInode fuseops.Inode = fuseops.RootInode + iota
	helloInode
	dirInode
	worldInode
)

type inodeInfo struct {
	kind     fuseops.FileKind
	children []dirChild
}

type dirChild struct {
	name  string
	inode fuseops.Inode
	kind  fuseops.FileKind
}

var gInodeInfo = map[fuseops.Inode]inodeInfo{
	rootInode: {
		kind: fuseops.KindDirectory,
		children: []dirChild{
			{name: "hello", inode: helloInode, kind: fuseops.KindRegular},
			{name: "dir", inode: dirInode, kind: fuseops.KindDirectory},
		},
	},
	helloInode: {kind: fuseops.KindRegular},
	dirInode: {
		kind: fuseops.KindDirectory,
		children: []dirChild{
			{name: "world", inode: worldInode, kind: fuseops.KindRegular},
		},
	},
	worldInode: {kind: fuseops.KindRegular},
}

// helloHandler answers every read-path operation out of gInodeInfo and
// leaves everything else to DefaultHandler (no writes are possible on a
// fixed tree).
type helloHandler struct {
	*easyfuse.DefaultHandler[fuseops.Inode]
	clock timeutil.Clock
}

func (h *helloHandler) attr(inode fuseops.Inode) fuseops.FileAttribute {
	info := gInodeInfo[inode]
	now := h.clock.Now()
	attr := fuseops.FileAttribute{
		Nlink: 1,
		Kind:  info.kind,
		Atime: now,
		Mtime: now,
		Crtime: now,
	}
	if info.kind == fuseops.KindDirectory {
		attr.Perm = 0555
	} else {
		attr.Perm = 0444
		attr.Size = uint64(len(contents))
	}
	return attr
}

func (h *helloHandler) Lookup(info easyfuse.RequestInfo, parent fuseops.Inode, name string) (easyfuse.Metadata[fuseops.Inode], error) {
	for _, c := range gInodeInfo[parent].children {
		if c.name == name {
			return easyfuse.Metadata[fuseops.Inode]{ID: c.inode, Attr: h.attr(c.inode)}, nil
		}
	}
	return easyfuse.Metadata[fuseops.Inode]{}, easyfuse.ErrNotExist
}

func (h *helloHandler) GetAttr(info easyfuse.RequestInfo, id fuseops.Inode, fh *easyfuse.FileHandle) (fuseops.FileAttribute, error) {
	if _, ok := gInodeInfo[id]; !ok {
		return fuseops.FileAttribute{}, easyfuse.ErrNotExist
	}
	return h.attr(id), nil
}

func (h *helloHandler) OpenDir(info easyfuse.RequestInfo, id fuseops.Inode, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	return easyfuse.OpenResult{}, nil
}

func (h *helloHandler) ReadDir(info easyfuse.RequestInfo, id fuseops.Inode, fh easyfuse.FileHandle) ([]easyfuse.DirEntry[fuseops.Inode], error) {
	children := gInodeInfo[id].children
	out := make([]easyfuse.DirEntry[fuseops.Inode], len(children))
	for i, c := range children {
		out[i] = easyfuse.DirEntry[fuseops.Inode]{
			Name: c.name,
			Meta: easyfuse.MinimalMetadata[fuseops.Inode]{ID: c.inode, Kind: c.kind},
		}
	}
	return out, nil
}

func (h *helloHandler) ReadDirPlus(info easyfuse.RequestInfo, id fuseops.Inode, fh easyfuse.FileHandle) ([]easyfuse.DirEntryPlus[fuseops.Inode], error) {
	children := gInodeInfo[id].children
	out := make([]easyfuse.DirEntryPlus[fuseops.Inode], len(children))
	for i, c := range children {
		out[i] = easyfuse.DirEntryPlus[fuseops.Inode]{
			Name: c.name,
			Meta: easyfuse.Metadata[fuseops.Inode]{ID: c.inode, Attr: h.attr(c.inode)},
		}
	}
	return out, nil
}

func (h *helloHandler) Open(info easyfuse.RequestInfo, id fuseops.Inode, flags easyfuse.OpenFlags) (easyfuse.OpenResult, error) {
	if gInodeInfo[id].kind != fuseops.KindRegular {
		return easyfuse.OpenResult{}, easyfuse.ErrIsDir
	}
	return easyfuse.OpenResult{}, nil
}

func (h *helloHandler) Read(info easyfuse.RequestInfo, id fuseops.Inode, fh easyfuse.FileHandle, offset int64, size uint32) ([]byte, error) {
	if offset >= int64(len(contents)) {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(contents)) {
		end = int64(len(contents))
	}
	return []byte(contents[offset:end]), nil
}

func main() {
	flag.Parse()
	if *fMountPoint == "" {
		log.Fatalf("you must set --mount_point")
	}

	handler := &helloHandler{
		DefaultHandler: easyfuse.NewDefaultHandler[fuseops.Inode](),
		clock:          timeutil.RealClock(),
	}

	opts := easyfuse.MountOptions{
		FSName:    "hello",
		DebugFuse: *fDebug,
	}
	if *fDebug {
		opts.Options = []string{"debug"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := easyfuse.Mount[fuseops.Inode](ctx, *fMountPoint, handler, easyfuse.InodeResolver{}, easyfuse.Serial{}, opts)
	if err != nil {
		log.Fatalf("Mount: %v", err)
	}
}
