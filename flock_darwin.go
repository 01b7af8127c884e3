package easyfuse

import (
	"fmt"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// mapFlockType converts a Darwin fcntl.h F_RDLCK/F_UNLCK/F_WRLCK value, as
// carried on the wire in a getlk/setlk/setlkw request, to a FileLockType.
// Darwin numbers these differently from Linux.
func mapFlockType(t uint32) fuseops.FileLockType {
	switch t {
	case 1:
		return fuseops.LockRead
	case 2:
		return fuseops.LockUnlock
	case 3:
		return fuseops.LockWrite
	default:
		panic(fmt.Sprintf("mapFlockType: unknown type %d", t))
	}
}

func unmapFlockType(t fuseops.FileLockType) uint32 {
	switch t {
	case fuseops.LockRead:
		return 1
	case fuseops.LockWrite:
		return 3
	default:
		return 2
	}
}
