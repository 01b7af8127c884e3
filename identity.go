package easyfuse

import (
	"strings"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// Path is the reconstructed-path identity kind: a slash-joined sequence of
// path components from the mount root, not including a leading slash. The
// mount root itself is the empty Path.
type Path string

// Join appends a child name to a path, handling the root case.
func (p Path) Join(name string) Path {
	if p == "" {
		return Path(name)
	}
	return Path(string(p) + "/" + name)
}

// Base returns the final path component, or "" for the root.
func (p Path) Base() string {
	if p == "" {
		return ""
	}
	if i := strings.LastIndexByte(string(p), '/'); i >= 0 {
		return string(p)[i+1:]
	}
	return string(p)
}

// Dir returns the path with its final component removed.
func (p Path) Dir() Path {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Ident is the type-parameter constraint a Handler/Resolver/Driver is
// built against: the user's chosen identity kind is either the kernel's
// raw inode (InodeIdentity) or a reconstructed Path (PathIdentity). This
// is spec.md §3's "compile-time choice" between the two FileIdentityKind
// variants, expressed as a Go generic constraint rather than a runtime
// switch, so mixing the two conventions is a type error rather than a
// behavior.
type Ident interface {
	fuseops.Inode | Path
}

// Metadata is the full record a handler returns alongside an identity for
// every entry-producing operation (lookup, create, mkdir, mknod, symlink,
// link). ID is carried uniformly for both identity kinds: in InodeIdentity
// mode it is the inode the handler wants to use; in PathIdentity mode the
// resolver owns inode allocation and this field is ignored by the driver
// (Go generics can't make a struct field conditional on the type
// parameter, so rather than two near-duplicate Metadata types we accept an
// unused field in the path case).
type Metadata[T Ident] struct {
	ID   T
	Attr fuseops.FileAttribute
}

// MinimalMetadata is enough to fill a directory entry without a full
// attribute record, returned by plain readdir.
type MinimalMetadata[T Ident] struct {
	ID   T
	Kind fuseops.FileKind
}
