package easyfuse

import (
	"io"

	"github.com/go-easyfuse/easyfuse/internal/buffer"
)

// Session is the kernel FUSE transport boundary spec.md §1 calls out as
// consumed rather than implemented here: reading raw request messages off
// the kernel's /dev/fuse handle and writing raw reply messages back.
// Mount/SpawnMount construct a platform Session and hand it to a read
// loop that turns each message into a Driver call.
type Session interface {
	// ReadMessage blocks until one kernel request is available and loads
	// it into m. Returns io.EOF once the filesystem has been unmounted.
	ReadMessage(m *buffer.InMessage) error

	// WriteMessage writes one complete reply, header included.
	WriteMessage(data []byte) error

	// Close tears down the session, triggering any in-flight
	// ReadMessage call to return io.EOF.
	Close() error
}

// MountOptions are forwarded verbatim to the kernel transport (spec.md
// §6). FSName and Subtype surface in mount(8)/df output; Options carries
// arbitrary additional "-o" style mount options (e.g. "allow_other").
type MountOptions struct {
	FSName      string
	Subtype     string
	ReadOnly    bool
	AllowOther  bool
	DebugFuse   bool
	Options     []string
	MaxReadSize uint32
}

func (o MountOptions) maxReadSize() int {
	if o.MaxReadSize == 0 {
		return buffer.MaxReadSize
	}
	return int(o.MaxReadSize)
}

// errSessionClosed is returned by a Session whose Close has already run;
// treated identically to io.EOF by the read loop.
var errSessionClosed = io.EOF
