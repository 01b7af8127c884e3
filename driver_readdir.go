package easyfuse

import (
	"context"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-easyfuse/easyfuse/fuseops"
	"github.com/go-easyfuse/easyfuse/fuseutil"
	"github.com/go-easyfuse/easyfuse/internal/fusekernel"
)

// direntHeaderSlack bounds the fuse_dirent fixed header plus alignment
// padding (24 bytes of header, up to 7 bytes of 8-byte-alignment padding);
// used to size a scratch buffer guaranteed to hold one WriteDirent call
// regardless of the reply's remaining maxSize budget.
const direntHeaderSlack = 32

// ReadDir implements spec.md §4.E's directory-read continuation
// algorithm for the plain (kind-only) readdir operation. offset is the
// cookie the kernel is resuming from (zero on a fresh read); maxSize
// bounds how many bytes of wire-formatted dirents the reply may carry,
// mirroring the kernel's fixed-size reply buffer.
func (d *Driver[T]) ReadDir(ctx context.Context, info RequestInfo, dirInode fuseops.Inode, fh FileHandle, offset int64, maxSize int, reply func([]byte, error)) {
	d.dispatch(ctx, "readdir", func() error {
		if offset < 0 {
			logProtocolViolation("readdir", "negative offset")
			reply(nil, ErrInvalidArgument)
			return ErrInvalidArgument
		}

		queue, err := d.loadReaddirQueue(info, dirInode, fh, uint64(offset))
		if err != nil {
			reply(nil, err)
			return err
		}

		buf := make([]byte, 0, maxSize)
		newOffset := uint64(offset) + 1
		for i, e := range queue {
			dirent := fuseops.Dirent{
				Inode:  e.inode,
				Offset: int64(newOffset),
				Name:   e.name,
				Kind:   e.payload,
			}
			// The first entry of a reply is always written, even past
			// maxSize: refusing it here would save the remaining queue
			// under cookie newOffset-1 (== offset on this very call),
			// a cookie the kernel can never resume from since an empty
			// reply reads as end-of-stream, not try-again.
			if i == 0 {
				scratch := make([]byte, len(e.name)+direntHeaderSlack)
				n := fuseutil.WriteDirent(scratch, dirent)
				buf = append(buf, scratch[:n]...)
				newOffset++
				continue
			}
			n := len(buf)
			buf = buf[:cap(buf)]
			written := fuseutil.WriteDirent(buf[n:], dirent)
			buf = buf[:n+written]
			if written == 0 {
				d.readdirStore.save(dirInode, newOffset-1, queue[i:])
				reply(buf, nil)
				return nil
			}
			newOffset++
		}
		reply(buf, nil)
		return nil
	})
}

// loadReaddirQueue implements the offset==0 (fresh call to the handler)
// vs offset>0 (resume from the stream store) branch shared by ReadDir.
func (d *Driver[T]) loadReaddirQueue(info RequestInfo, dirInode fuseops.Inode, fh FileHandle, offset uint64) ([]dirEntry[fuseops.FileKind], error) {
	if offset > 0 {
		q, ok := d.readdirStore.take(dirInode, offset)
		if !ok {
			return nil, nil // end of stream
		}
		return q, nil
	}

	dir := d.resolver.ResolveID(dirInode)
	entries, err := d.handler.ReadDir(info, dir, fh)
	if err != nil {
		return nil, err
	}

	hints := make([]ChildHint[T], len(entries))
	kinds := make([]fuseops.FileKind, len(entries))
	for i, e := range entries {
		hints[i] = ChildHint[T]{Name: e.Name, Hint: e.Meta.ID}
		kinds[i] = e.Meta.Kind
	}
	resolved := d.resolver.AddChildren(dirInode, hints, false)

	queue := make([]dirEntry[fuseops.FileKind], len(resolved))
	for i, r := range resolved {
		queue[i] = dirEntry[fuseops.FileKind]{name: r.Name, inode: r.Inode, payload: kinds[i]}
	}
	return queue, nil
}

// ReadDirPlus is ReadDir's counterpart that streams full attribute
// records, reusing the identical continuation algorithm over a
// separate store keyed by the same (inode, cookie) shape.
func (d *Driver[T]) ReadDirPlus(ctx context.Context, info RequestInfo, dirInode fuseops.Inode, fh FileHandle, offset int64, maxSize int, reply func([]byte, error)) {
	d.dispatch(ctx, "readdirplus", func() error {
		if offset < 0 {
			logProtocolViolation("readdirplus", "negative offset")
			reply(nil, ErrInvalidArgument)
			return ErrInvalidArgument
		}

		queue, err := d.loadReaddirplusQueue(info, dirInode, fh, uint64(offset))
		if err != nil {
			reply(nil, err)
			return err
		}

		buf := make([]byte, 0, maxSize)
		newOffset := uint64(offset) + 1
		for i, e := range queue {
			attr := e.payload
			if attr.Generation == 0 {
				attr.Generation = d.deriveGeneration()
			}
			entry := writeDirentPlus(e.inode, int64(newOffset), e.name, d.ttlOrDefault(attr.TTL), attr)
			// As in ReadDir, the first entry of a reply is always
			// written: refusing it would save the remainder under
			// cookie newOffset-1 (== offset), a cookie the kernel
			// never resumes from since an empty reply means end of
			// stream, not try-again.
			if i > 0 && len(buf)+len(entry) > maxSize {
				d.readdirplusStore.save(dirInode, newOffset-1, queue[i:])
				reply(buf, nil)
				return nil
			}
			buf = append(buf, entry...)
			newOffset++
		}
		reply(buf, nil)
		return nil
	})
}

// composeReadDirPlus is spec.md §4.C's documented readdirplus default:
// "composes readdir + per-entry lookup". DefaultHandler.ReadDirPlus
// itself cannot do this composition — Go's embedding has no virtual
// self-dispatch, so a DefaultHandler method only ever sees its own
// receiver, never the outer handler that embeds it (the teacher's own
// samples/hellofs-style handlers embed *DefaultHandler by value for
// exactly this reason: only the methods the outer type genuinely
// overrides take effect). The Driver is the one place that always holds
// the true top-of-chain handler, so it performs the composition here on
// DefaultHandler's behalf whenever a handler implements readdir and
// lookup but leaves readdirplus to the default.
func (d *Driver[T]) composeReadDirPlus(info RequestInfo, dir T, fh FileHandle) ([]DirEntryPlus[T], error) {
	entries, err := d.handler.ReadDir(info, dir, fh)
	if err != nil {
		return nil, err
	}

	out := make([]DirEntryPlus[T], len(entries))
	for i, e := range entries {
		meta, err := d.handler.Lookup(info, dir, e.Name)
		if err != nil {
			return nil, err
		}
		out[i] = DirEntryPlus[T]{Name: e.Name, Meta: meta}
	}
	return out, nil
}

func (d *Driver[T]) loadReaddirplusQueue(info RequestInfo, dirInode fuseops.Inode, fh FileHandle, offset uint64) ([]dirEntry[fuseops.FileAttribute], error) {
	if offset > 0 {
		q, ok := d.readdirplusStore.take(dirInode, offset)
		if !ok {
			return nil, nil
		}
		return q, nil
	}

	dir := d.resolver.ResolveID(dirInode)
	entries, err := d.handler.ReadDirPlus(info, dir, fh)
	if errnoOf(err) == syscall.ENOSYS {
		entries, err = d.composeReadDirPlus(info, dir, fh)
	}
	if err != nil {
		return nil, err
	}

	hints := make([]ChildHint[T], len(entries))
	attrs := make([]fuseops.FileAttribute, len(entries))
	for i, e := range entries {
		hints[i] = ChildHint[T]{Name: e.Name, Hint: e.Meta.ID}
		attrs[i] = e.Meta.Attr
	}
	resolved := d.resolver.AddChildren(dirInode, hints, true)

	queue := make([]dirEntry[fuseops.FileAttribute], len(resolved))
	for i, r := range resolved {
		queue[i] = dirEntry[fuseops.FileAttribute]{name: r.Name, inode: r.Inode, payload: attrs[i]}
	}
	return queue, nil
}

// writeDirentPlus formats one readdirplus wire entry: a fusekernel
// EntryOut for the kernel to cache, immediately followed by the same
// fuse_dirent-shaped header and name fuseutil.WriteDirent uses for plain
// readdir, at 8-byte alignment.
func writeDirentPlus(inode fuseops.Inode, offset int64, name string, ttl time.Duration, attr fuseops.FileAttribute) []byte {
	entryOut := buildEntryOut(inode, attr, ttl, attrGeneration(attr))

	direntBuf := make([]byte, len(name)+direntHeaderSlack)
	n := fuseutil.WriteDirent(direntBuf, fuseops.Dirent{Inode: inode, Offset: offset, Name: name, Kind: attr.Kind})

	entrySize := int(unsafe.Sizeof(entryOut))
	out := make([]byte, 0, entrySize+n)
	out = append(out, unsafe.Slice((*byte)(unsafe.Pointer(&entryOut)), entrySize)...)
	out = append(out, direntBuf[:n]...)
	return out
}

func attrGeneration(attr fuseops.FileAttribute) uint64 {
	if attr.Generation != 0 {
		return attr.Generation
	}
	return 1
}

// buildEntryOut converts a FileAttribute into the kernel's wire EntryOut
// shape for the given inode, ttl and generation.
func buildEntryOut(inode fuseops.Inode, attr fuseops.FileAttribute, ttl time.Duration, generation uint64) fusekernel.EntryOut {
	return fusekernel.EntryOut{
		Nodeid:         uint64(inode),
		Generation:     generation,
		EntryValid:     uint64(ttl.Seconds()),
		AttrValid:      uint64(ttl.Seconds()),
		EntryValidNsec: uint32(ttl.Nanoseconds() % 1e9),
		AttrValidNsec:  uint32(ttl.Nanoseconds() % 1e9),
		Attr:           attrToWire(inode, attr),
	}
}
