package easyfuse

import (
	"testing"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

func TestDirStreamStoreSaveThenTakeRoundTrips(t *testing.T) {
	s := newDirStreamStore[fuseops.FileKind]()

	queue := []dirEntry[fuseops.FileKind]{
		{name: "a", inode: 2, payload: fuseops.KindRegular},
		{name: "b", inode: 3, payload: fuseops.KindDirectory},
	}
	s.save(RootInode, 1, queue)

	got, ok := s.take(RootInode, 1)
	if !ok {
		t.Fatal("take() = false after a matching save()")
	}
	if len(got) != len(queue) {
		t.Fatalf("take() returned %d entries, want %d", len(got), len(queue))
	}

	if _, ok := s.take(RootInode, 1); ok {
		t.Fatal("take() succeeded twice on the same cookie; it should be consumed on first take")
	}
}

func TestDirStreamStoreMissingCookieIsEndOfStream(t *testing.T) {
	s := newDirStreamStore[fuseops.FileKind]()

	_, ok := s.take(RootInode, 99)
	if ok {
		t.Fatal("take() on a never-saved cookie returned ok=true")
	}
}

func TestDirStreamStoreSaveEmptyQueueIsANoop(t *testing.T) {
	s := newDirStreamStore[fuseops.FileKind]()

	s.save(RootInode, 1, nil)

	if _, ok := s.take(RootInode, 1); ok {
		t.Fatal("take() found a queue after save() was given an empty slice")
	}
}

func TestDirStreamStoreDropAllClearsEveryCookieForAnInode(t *testing.T) {
	s := newDirStreamStore[fuseops.FileKind]()

	s.save(RootInode, 1, []dirEntry[fuseops.FileKind]{{name: "a", inode: 2}})
	s.save(RootInode, 2, []dirEntry[fuseops.FileKind]{{name: "b", inode: 3}})
	s.save(fuseops.Inode(99), 1, []dirEntry[fuseops.FileKind]{{name: "c", inode: 4}})

	s.dropAll(RootInode)

	if _, ok := s.take(RootInode, 1); ok {
		t.Fatal("cookie 1 survived dropAll(RootInode)")
	}
	if _, ok := s.take(RootInode, 2); ok {
		t.Fatal("cookie 2 survived dropAll(RootInode)")
	}
	if _, ok := s.take(fuseops.Inode(99), 1); !ok {
		t.Fatal("dropAll(RootInode) also dropped a stream belonging to a different inode")
	}
}
