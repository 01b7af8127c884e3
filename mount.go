package easyfuse

import (
	"context"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/go-easyfuse/easyfuse/fuseops"
	"github.com/go-easyfuse/easyfuse/internal/buffer"
	"github.com/go-easyfuse/easyfuse/internal/fusekernel"
)

// MountedFileSystem is the handle Mount/SpawnMount return: a background
// session that can be waited on or unmounted.
type MountedFileSystem struct {
	session Session
	done    chan error
}

// Join blocks until the session ends (kernel unmount or Close), returning
// any error the transport reported.
func (m *MountedFileSystem) Join(ctx context.Context) error {
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unmount tears down the session.
func (m *MountedFileSystem) Unmount() error {
	return m.session.Close()
}

// Mount binds handler+resolver+policy to a kernel mount at mountpoint and
// blocks until the session ends (spec.md §4.G).
func Mount[T Ident](ctx context.Context, mountpoint string, handler Handler[T], resolver Resolver[T], policy SchedulePolicy, opts MountOptions) error {
	mfs, err := SpawnMount(ctx, mountpoint, handler, resolver, policy, opts)
	if err != nil {
		return err
	}
	return mfs.Join(ctx)
}

// SpawnMount is Mount's non-blocking form: it returns as soon as the
// session is open, running the request loop on a background goroutine.
// num_threads in spec.md §4.G is a property of the SchedulePolicy the
// caller constructs (NewParallel/NewAsync's width argument), not a
// separate parameter here.
func SpawnMount[T Ident](ctx context.Context, mountpoint string, handler Handler[T], resolver Resolver[T], policy SchedulePolicy, opts MountOptions) (*MountedFileSystem, error) {
	session, err := openSession(mountpoint, opts)
	if err != nil {
		return nil, err
	}

	driver := NewDriver[T](handler, resolver, policy)
	mfs := &MountedFileSystem{session: session, done: make(chan error, 1)}

	go func() {
		mfs.done <- runLoop(ctx, driver, session, opts)
	}()

	return mfs, nil
}

// runLoop reads one kernel request at a time and translates it into a
// Driver call; the Driver's reply callback writes the response back
// through the session, possibly from a different goroutine than the one
// running this loop when the policy is Parallel or Async. WriteMessage
// must therefore be safe for concurrent use.
func runLoop[T Ident](ctx context.Context, d *Driver[T], session Session, opts MountOptions) error {
	for {
		var in buffer.InMessage
		if err := session.ReadMessage(&in); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		header := *in.Header()
		info := RequestInfo{Unique: header.Unique, UID: header.UID, GID: header.GID, PID: header.PID}
		inode := fuseops.Inode(header.NodeID)

		dispatchOp(ctx, d, session, header.Opcode, header.Unique, info, inode, &in, opts)
	}
}

func writeReply(session Session, unique uint64, errno int32, payload []byte) {
	var out buffer.OutMessage
	out.Reset()
	if len(payload) > 0 {
		out.Append(payload)
	}
	h := out.OutHeader()
	h.Unique = unique
	h.Error = -errno
	h.Len = uint32(out.Len())
	session.WriteMessage(out.Bytes())
}

func errnoOut(err error) int32 {
	if err == nil {
		return 0
	}
	return int32(errnoOf(err))
}

func structBytes[S any](s S) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s)), int(unsafe.Sizeof(s)))
}

func consumeStruct[S any](in *buffer.InMessage, out *S) bool {
	p := in.Consume(unsafe.Sizeof(*out))
	if p == nil {
		return false
	}
	*out = *(*S)(p)
	return true
}

func consumeCString(in *buffer.InMessage) string {
	b := in.ConsumeBytes(uintptr(in.Remaining()))
	if b == nil {
		return ""
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func consumeRestCString(b []byte) (string, string) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), string(b[i+1:])
		}
	}
	return string(b), ""
}

// dispatchOp converts one already-header-parsed kernel message into the
// matching Driver call — the one place spec.md §6's "exactly one driver
// method per kernel operation name" is wired to the wire opcode that
// names it. Framing and the mount/unmount handshake live in
// mount_linux.go; this switch is the boundary where that transport
// (consumed as a service, per spec.md §1) meets THE CORE.
func dispatchOp[T Ident](ctx context.Context, d *Driver[T], session Session, op fusekernel.Opcode, unique uint64, info RequestInfo, inode fuseops.Inode, in *buffer.InMessage, opts MountOptions) {
	maxSize := opts.maxReadSize()

	switch op {
	case fusekernel.OpInit:
		var body fusekernel.InitIn
		consumeStruct(in, &body)
		d.Init(ctx, info, func(err error) {
			out := fusekernel.InitOut{Major: 7, Minor: 31, MaxWrite: uint32(maxSize), MaxReadahead: body.MaxReadahead}
			writeReply(session, unique, errnoOut(err), structBytes(out))
		})

	case fusekernel.OpDestroy:
		d.Destroy(ctx, info, func() {
			writeReply(session, unique, 0, nil)
		})

	case fusekernel.OpLookup:
		name := consumeCString(in)
		d.Lookup(ctx, info, inode, name, func(r entryReply, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(entryOutFromReply(r)))
		})

	case fusekernel.OpForget:
		var body fusekernel.ForgetIn
		consumeStruct(in, &body)
		d.Forget(ctx, info, inode, body.Nlookup)

	case fusekernel.OpGetattr:
		d.GetAttr(ctx, info, inode, nil, func(ttl time.Duration, attr fuseops.FileAttribute, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(attrOutFromEntry(inode, ttl, attr)))
		})

	case fusekernel.OpSetattr:
		var body fusekernel.SetattrIn
		consumeStruct(in, &body)
		req := setAttrRequestFromWire(body)
		d.SetAttr(ctx, info, inode, req, func(ttl time.Duration, attr fuseops.FileAttribute, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(attrOutFromEntry(inode, ttl, attr)))
		})

	case fusekernel.OpReadlink:
		d.ReadLink(ctx, info, inode, func(target string, err error) {
			writeReply(session, unique, errnoOut(err), []byte(target))
		})

	case fusekernel.OpMknod:
		var body fusekernel.MknodIn
		consumeStruct(in, &body)
		name := consumeCString(in)
		dev, _ := fuseops.DeviceTypeFromMode(unixModeToFileMode(body.Mode), body.Rdev)
		d.MkNod(ctx, info, inode, name, body.Mode, dev, body.Umask, func(r entryReply, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(entryOutFromReply(r)))
		})

	case fusekernel.OpMkdir:
		var body fusekernel.MkdirIn
		consumeStruct(in, &body)
		name := consumeCString(in)
		d.MkDir(ctx, info, inode, name, body.Mode, body.Umask, func(r entryReply, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(entryOutFromReply(r)))
		})

	case fusekernel.OpUnlink:
		name := consumeCString(in)
		d.Unlink(ctx, info, inode, name, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpRmdir:
		name := consumeCString(in)
		d.RmDir(ctx, info, inode, name, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpSymlink:
		rest := in.ConsumeBytes(uintptr(in.Remaining()))
		name, remainder := consumeRestCString(rest)
		target, _ := consumeRestCString([]byte(remainder))
		d.Symlink(ctx, info, inode, name, target, func(r entryReply, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(entryOutFromReply(r)))
		})

	case fusekernel.OpRename:
		var body fusekernel.RenameIn
		consumeStruct(in, &body)
		rest := in.ConsumeBytes(uintptr(in.Remaining()))
		oldName, newName := consumeRestCString(rest)
		d.Rename(ctx, info, inode, oldName, fuseops.Inode(body.Newdir), newName, 0, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpRename2:
		var body fusekernel.Rename2In
		consumeStruct(in, &body)
		rest := in.ConsumeBytes(uintptr(in.Remaining()))
		oldName, newName := consumeRestCString(rest)
		d.Rename(ctx, info, inode, oldName, fuseops.Inode(body.Newdir), newName, FromRenameFlagsBits(body.Flags), func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpLink:
		var body fusekernel.LinkIn
		consumeStruct(in, &body)
		newName := consumeCString(in)
		d.Link(ctx, info, fuseops.Inode(body.Oldnodeid), inode, newName, func(r entryReply, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(entryOutFromReply(r)))
		})

	case fusekernel.OpOpen:
		var body fusekernel.OpenIn
		consumeStruct(in, &body)
		d.Open(ctx, info, inode, FromOpenFlagsBits(body.Flags), func(res OpenResult, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.OpenOut{Fh: uint64(res.Handle), OpenFlags: res.OpenFlags}))
		})

	case fusekernel.OpRead:
		var body fusekernel.ReadIn
		consumeStruct(in, &body)
		d.Read(ctx, info, inode, FileHandle(body.Fh), int64(body.Offset), body.Size, func(data []byte, err error) {
			writeReply(session, unique, errnoOut(err), data)
		})

	case fusekernel.OpWrite:
		var body fusekernel.WriteIn
		consumeStruct(in, &body)
		data := in.ConsumeBytes(uintptr(body.Size))
		d.Write(ctx, info, inode, FileHandle(body.Fh), int64(body.Offset), data, body.WriteFlags, func(n uint32, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.WriteOut{Size: n}))
		})

	case fusekernel.OpFlush:
		var body fusekernel.FlushIn
		consumeStruct(in, &body)
		d.Flush(ctx, info, inode, FileHandle(body.Fh), body.LockOwner, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpRelease:
		var body fusekernel.ReleaseIn
		consumeStruct(in, &body)
		d.Release(ctx, info, inode, FileHandle(body.Fh), FromOpenFlagsBits(body.Flags), body.ReleaseFlags != 0, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpFsync:
		var body fusekernel.FsyncIn
		consumeStruct(in, &body)
		d.Fsync(ctx, info, inode, FileHandle(body.Fh), body.FsyncFlags&1 != 0, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpOpendir:
		var body fusekernel.OpenIn
		consumeStruct(in, &body)
		d.OpenDir(ctx, info, inode, FromOpenFlagsBits(body.Flags), func(res OpenResult, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.OpenOut{Fh: uint64(res.Handle), OpenFlags: res.OpenFlags}))
		})

	case fusekernel.OpReaddir:
		var body fusekernel.ReadIn
		consumeStruct(in, &body)
		d.ReadDir(ctx, info, inode, FileHandle(body.Fh), int64(body.Offset), maxSize, func(data []byte, err error) {
			writeReply(session, unique, errnoOut(err), data)
		})

	case fusekernel.OpReaddirplus:
		var body fusekernel.ReadIn
		consumeStruct(in, &body)
		d.ReadDirPlus(ctx, info, inode, FileHandle(body.Fh), int64(body.Offset), maxSize, func(data []byte, err error) {
			writeReply(session, unique, errnoOut(err), data)
		})

	case fusekernel.OpReleasedir:
		var body fusekernel.ReleaseIn
		consumeStruct(in, &body)
		d.ReleaseDir(ctx, info, inode, FileHandle(body.Fh), func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpFsyncdir:
		var body fusekernel.FsyncIn
		consumeStruct(in, &body)
		d.FsyncDir(ctx, info, inode, FileHandle(body.Fh), body.FsyncFlags&1 != 0, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpStatfs:
		d.StatFs(ctx, info, inode, func(s StatFs, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(statfsToWire(s)))
		})

	case fusekernel.OpSetxattr:
		var body fusekernel.SetxattrIn
		consumeStruct(in, &body)
		rest := in.ConsumeBytes(uintptr(in.Remaining()))
		name, _ := consumeRestCString(rest)
		value := rest[len(name)+1:]
		if uint32(len(value)) > body.Size {
			value = value[:body.Size]
		}
		d.SetXAttr(ctx, info, inode, name, value, FromXattrFlagsBits(body.Flags), func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpGetxattr:
		var body fusekernel.GetxattrIn
		consumeStruct(in, &body)
		name := consumeCString(in)
		d.GetXAttr(ctx, info, inode, name, body.Size, func(value []byte, requiredSize uint32, err error) {
			if err == nil && body.Size == 0 {
				writeReply(session, unique, 0, structBytes(fusekernel.GetxattrOut{Size: requiredSize}))
				return
			}
			writeReply(session, unique, errnoOut(err), value)
		})

	case fusekernel.OpListxattr:
		var body fusekernel.GetxattrIn
		consumeStruct(in, &body)
		d.ListXAttr(ctx, info, inode, body.Size, func(value []byte, requiredSize uint32, err error) {
			if err == nil && body.Size == 0 {
				writeReply(session, unique, 0, structBytes(fusekernel.GetxattrOut{Size: requiredSize}))
				return
			}
			writeReply(session, unique, errnoOut(err), value)
		})

	case fusekernel.OpRemovexattr:
		name := consumeCString(in)
		d.RemoveXAttr(ctx, info, inode, name, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpAccess:
		var body fusekernel.AccessIn
		consumeStruct(in, &body)
		d.Access(ctx, info, inode, FromAccessMaskBits(body.Mask), func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpCreate:
		var body fusekernel.CreateIn
		consumeStruct(in, &body)
		name := consumeCString(in)
		d.Create(ctx, info, inode, name, body.Mode, FromOpenFlagsBits(body.Flags), body.Umask, func(r entryReply, fh FileHandle, openFlags uint32, err error) {
			type createReply struct {
				Entry fusekernel.EntryOut
				Open  fusekernel.OpenOut
			}
			writeReply(session, unique, errnoOut(err), structBytes(createReply{
				Entry: entryOutFromReply(r),
				Open:  fusekernel.OpenOut{Fh: uint64(fh), OpenFlags: openFlags},
			}))
		})

	case fusekernel.OpFallocate:
		var body fusekernel.FallocateIn
		consumeStruct(in, &body)
		d.Fallocate(ctx, info, inode, FileHandle(body.Fh), int64(body.Offset), int64(body.Length), FromFallocateFlagsBits(body.Mode), func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpLseek:
		var body fusekernel.LseekIn
		consumeStruct(in, &body)
		d.Lseek(ctx, info, inode, FileHandle(body.Fh), int32(body.Whence), int64(body.Offset), func(n int64, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.LseekOut{Offset: uint64(n)}))
		})

	case fusekernel.OpCopyFileRng:
		var body fusekernel.CopyFileRangeIn
		consumeStruct(in, &body)
		d.CopyFileRange(ctx, info, inode, FileHandle(body.FhIn), int64(body.OffIn), fuseops.Inode(body.NodeidOut), FileHandle(body.FhOut), int64(body.OffOut), body.Len, uint32(body.Flags), func(n uint32, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.WriteOut{Size: n}))
		})

	case fusekernel.OpGetlk:
		var body fusekernel.LkIn
		consumeStruct(in, &body)
		d.GetLk(ctx, info, inode, FileHandle(body.Fh), lockInfoFromWire(body.Lk), func(l LockInfo, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(lockInfoToWire(l)))
		})

	case fusekernel.OpSetlk, fusekernel.OpSetlkw:
		var body fusekernel.LkIn
		consumeStruct(in, &body)
		d.SetLk(ctx, info, inode, FileHandle(body.Fh), lockInfoFromWire(body.Lk), op == fusekernel.OpSetlkw, func(err error) {
			writeReply(session, unique, errnoOut(err), nil)
		})

	case fusekernel.OpBmap:
		var body fusekernel.BmapIn
		consumeStruct(in, &body)
		d.BMap(ctx, info, inode, body.Blocksize, body.Block, func(block uint64, err error) {
			writeReply(session, unique, errnoOut(err), structBytes(fusekernel.BmapOut{Block: block}))
		})

	case fusekernel.OpIoctl:
		var body fusekernel.IoctlIn
		consumeStruct(in, &body)
		inData := in.ConsumeBytes(uintptr(body.InSize))
		d.Ioctl(ctx, info, inode, FileHandle(body.Fh), body.Cmd, body.Flags, inData, body.OutSize, func(res IoctlResult, err error) {
			writeReply(session, unique, errnoOut(err), res.Data)
		})

	default:
		writeReply(session, unique, int32(ErrNotImplemented.Syscall()), nil)
	}
}

// unixModeToFileMode recovers the os.FileMode type bits from a raw
// mknod(2)-style mode word, the inverse of kindToMode in driver_reply.go.
func unixModeToFileMode(mode uint32) os.FileMode {
	switch mode & 0170000 {
	case 0040000:
		return os.ModeDir
	case 0120000:
		return os.ModeSymlink
	case 0060000:
		return os.ModeDevice
	case 0020000:
		return os.ModeDevice | os.ModeCharDevice
	case 0010000:
		return os.ModeNamedPipe
	case 0140000:
		return os.ModeSocket
	default:
		return 0
	}
}

func setAttrRequestFromWire(body fusekernel.SetattrIn) SetAttrRequest {
	var req SetAttrRequest
	if body.Valid&fusekernel.SetattrSize != 0 {
		req.Size = &body.Size
	}
	if body.Valid&fusekernel.SetattrMode != 0 {
		req.Mode = &body.Mode
	}
	if body.Valid&fusekernel.SetattrUID != 0 {
		req.UID = &body.UID
	}
	if body.Valid&fusekernel.SetattrGID != 0 {
		req.GID = &body.GID
	}
	if body.Valid&fusekernel.SetattrAtime != 0 {
		atime := int64(body.Atime)
		req.Atime = &atime
	}
	if body.Valid&fusekernel.SetattrMtime != 0 {
		mtime := int64(body.Mtime)
		req.Mtime = &mtime
	}
	if body.Valid&fusekernel.SetattrFh != 0 {
		fh := FileHandle(body.Fh)
		req.FH = &fh
	}
	return req
}

func statfsToWire(s StatFs) fusekernel.StatfsOut {
	return fusekernel.StatfsOut{
		Blocks:  s.Blocks,
		Bfree:   s.BlocksFree,
		Bavail:  s.BlocksAvailable,
		Files:   s.Files,
		Ffree:   s.FilesFree,
		Bsize:   s.BlockSize,
		Namelen: s.MaxNameLength,
		Frsize:  s.FragmentSize,
	}
}

func lockInfoFromWire(l fusekernel.FileLock) LockInfo {
	return LockInfo{Type: mapFlockType(l.Type), PID: l.Pid, Start: l.Start, End: l.End}
}

func lockInfoToWire(l LockInfo) fusekernel.LkOut {
	return fusekernel.LkOut{Type: unmapFlockType(l.Type), Pid: l.PID, Start: l.Start, End: l.End}
}
