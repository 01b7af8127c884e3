package easyfuse

import (
	"testing"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

func TestPathResolverLookupAssignsStableInode(t *testing.T) {
	r := NewPathResolver()

	a := r.Lookup(RootInode, "a", Path("a"), true)
	b := r.Lookup(RootInode, "a", Path("a"), true)

	if a != b {
		t.Fatalf("Lookup(root, a) returned %d then %d, want the same inode both times", a, b)
	}
	if got := r.ResolveID(a); got != Path("a") {
		t.Fatalf("ResolveID(%d) = %q, want %q", a, got, "a")
	}
}

func TestPathResolverReconstructsNestedPath(t *testing.T) {
	r := NewPathResolver()

	dir := r.Lookup(RootInode, "dir", Path("dir"), true)
	file := r.Lookup(dir, "file", Path("dir/file"), true)

	if got := r.ResolveID(file); got != Path("dir/file") {
		t.Fatalf("ResolveID(%d) = %q, want %q", file, got, "dir/file")
	}
}

func TestPathResolverForgetEvictsAtZeroNlookup(t *testing.T) {
	r := NewPathResolver()

	inode := r.Lookup(RootInode, "a", Path("a"), true)
	r.Lookup(RootInode, "a", Path("a"), true) // nlookup now 2

	r.Forget(inode, 1)
	if got := r.ResolveID(inode); got != Path("a") {
		t.Fatalf("inode evicted too early: ResolveID(%d) = %q", inode, got)
	}

	r.Forget(inode, 1)

	defer func() {
		if recover() == nil {
			t.Fatal("ResolveID did not panic after nlookup reached zero")
		}
	}()
	r.ResolveID(inode)
}

func TestPathResolverRenameUpdatesChildIndex(t *testing.T) {
	r := NewPathResolver()

	src := r.Lookup(RootInode, "src", Path("src"), true)
	dstDir := r.Lookup(RootInode, "dstdir", Path("dstdir"), true)

	r.Rename(RootInode, "src", dstDir, "dst")

	if got := r.ResolveID(src); got != Path("dstdir/dst") {
		t.Fatalf("ResolveID(%d) after rename = %q, want %q", src, got, "dstdir/dst")
	}

	// Looking up the old name under the old parent should mint a fresh
	// inode rather than resolving to the moved one.
	stale := r.Lookup(RootInode, "src", Path("src"), true)
	if stale == src {
		t.Fatalf("Lookup(root, src) after rename reused the moved inode %d", src)
	}
}

func TestPathResolverAddChildrenResolvesBatch(t *testing.T) {
	r := NewPathResolver()

	resolved := r.AddChildren(RootInode, []ChildHint[Path]{
		{Name: "one", Hint: Path("one")},
		{Name: "two", Hint: Path("two")},
	}, true)

	if len(resolved) != 2 {
		t.Fatalf("AddChildren returned %d entries, want 2", len(resolved))
	}
	for _, rc := range resolved {
		if got := r.ResolveID(rc.Inode); string(got) != rc.Name {
			t.Fatalf("ResolveID(%d) = %q, want %q", rc.Inode, got, rc.Name)
		}
	}
}

func TestInodeResolverIsAPassThrough(t *testing.T) {
	var r InodeResolver

	if got := r.Lookup(RootInode, "whatever", fuseops.Inode(42), true); got != 42 {
		t.Fatalf("Lookup = %d, want 42", got)
	}
	if got := r.ResolveID(42); got != 42 {
		t.Fatalf("ResolveID(42) = %d, want 42", got)
	}
}
