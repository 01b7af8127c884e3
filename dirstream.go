package easyfuse

import (
	"github.com/jacobsa/syncutil"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// dirStreamKey identifies one partially-consumed directory iterator:
// the directory inode plus the cookie the kernel will hand back to
// resume it.
type dirStreamKey struct {
	inode  fuseops.Inode
	cookie uint64
}

// dirEntry is one queued entry awaiting delivery, carrying whichever
// per-entry payload its store was built for (FileKind for readdir,
// fuseops.FileAttribute for readdirplus).
type dirEntry[P any] struct {
	name    string
	inode   fuseops.Inode
	payload P
}

// dirStreamStore holds partially consumed directory iterators keyed by
// (inode, cookie), per spec.md §4.F. Two independent instances exist on
// every Driver: one for readdir (P = fuseops.FileKind), one for
// readdirplus (P = fuseops.FileAttribute). There is no TTL: a missing
// cookie is treated as end-of-stream, never an error.
type dirStreamStore[P any] struct {
	mu      syncutil.InvariantMutex
	streams map[dirStreamKey][]dirEntry[P]
}

func newDirStreamStore[P any]() *dirStreamStore[P] {
	s := &dirStreamStore[P]{streams: map[dirStreamKey][]dirEntry[P]{}}
	s.mu = syncutil.NewInvariantMutex(func() {})
	return s
}

// take removes and returns the queue saved under (inode, cookie), if any.
func (s *dirStreamStore[P]) take(inode fuseops.Inode, cookie uint64) ([]dirEntry[P], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dirStreamKey{inode: inode, cookie: cookie}
	q, ok := s.streams[key]
	if ok {
		delete(s.streams, key)
	}
	return q, ok
}

// save stashes the remaining queue under (inode, cookie) for a later take.
// An empty queue is simply not stored, since a subsequent take treats a
// missing cookie identically to an exhausted one.
func (s *dirStreamStore[P]) save(inode fuseops.Inode, cookie uint64, remaining []dirEntry[P]) {
	if len(remaining) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[dirStreamKey{inode: inode, cookie: cookie}] = remaining
}

// dropAll removes every stream rooted at inode. Used when an opendir's
// matching releasedir arrives, since the kernel will never present that
// handle's cookies again.
func (s *dirStreamStore[P]) dropAll(inode fuseops.Inode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.streams {
		if key.inode == inode {
			delete(s.streams, key)
		}
	}
}
