package easyfuse

import (
	"fmt"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// mapFlockType converts a Linux fcntl.h F_RDLCK/F_WRLCK/F_UNLCK value, as
// carried on the wire in a getlk/setlk/setlkw request, to a FileLockType.
func mapFlockType(t uint32) fuseops.FileLockType {
	switch t {
	case 0:
		return fuseops.LockRead
	case 1:
		return fuseops.LockWrite
	case 2:
		return fuseops.LockUnlock
	default:
		panic(fmt.Sprintf("mapFlockType: unknown type %d", t))
	}
}

// unmapFlockType is mapFlockType's inverse, used when formatting a getlk
// reply.
func unmapFlockType(t fuseops.FileLockType) uint32 {
	switch t {
	case fuseops.LockRead:
		return 0
	case fuseops.LockWrite:
		return 1
	default:
		return 2
	}
}
