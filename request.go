package easyfuse

import "github.com/go-easyfuse/easyfuse/fuseops"

// RequestInfo is immutable for the lifetime of one kernel request.
type RequestInfo struct {
	Unique uint64
	UID    uint32
	GID    uint32
	PID    uint32
}

// Inode re-exports fuseops.Inode so handler signatures in this package
// don't need a second import for the common case.
type Inode = fuseops.Inode

// RootInode re-exports fuseops.RootInode.
const RootInode = fuseops.RootInode
