package easyfuse

import (
	"context"
	"fmt"
	"time"

	"github.com/jacobsa/reqtrace"
	"github.com/jacobsa/timeutil"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-easyfuse/easyfuse/fuseops"
)

// DefaultTTL is substituted for a FileAttribute.TTL of zero. One second,
// matching the reference implementation's default_fuse_handler default.
const DefaultTTL = time.Second

// Driver is the translation boundary between the kernel transport and a
// Handler (spec.md §4.E — THE CORE). One Driver is constructed per mount;
// it owns the resolver and both directory-stream stores, so there is no
// global/static state (spec.md §9).
type Driver[T Ident] struct {
	handler  Handler[T]
	resolver Resolver[T]
	policy   SchedulePolicy
	clock    timeutil.Clock

	readdirStore     *dirStreamStore[fuseops.FileKind]
	readdirplusStore *dirStreamStore[fuseops.FileAttribute]

	metrics *driverMetrics
	start   time.Time
}

// NewDriver builds a Driver around handler and resolver, dispatching
// every operation under policy.
func NewDriver[T Ident](handler Handler[T], resolver Resolver[T], policy SchedulePolicy) *Driver[T] {
	return NewDriverWithClock[T](handler, resolver, policy, timeutil.RealClock())
}

// NewDriverWithClock is NewDriver with an injectable Clock, so tests can
// use timeutil.SimulateTime to control TTL/generation arithmetic
// deterministically, the same way the teacher's memfs tests do.
func NewDriverWithClock[T Ident](handler Handler[T], resolver Resolver[T], policy SchedulePolicy, clock timeutil.Clock) *Driver[T] {
	return &Driver[T]{
		handler:          handler,
		resolver:         resolver,
		policy:           policy,
		clock:            clock,
		readdirStore:     newDirStreamStore[fuseops.FileKind](),
		readdirplusStore: newDirStreamStore[fuseops.FileAttribute](),
		metrics:          newDriverMetrics(),
		start:            clock.Now(),
	}
}

// Metrics exposes the driver's prometheus registry so callers can serve
// it (or merge it into a larger registry) alongside the mount.
func (d *Driver[T]) Metrics() *prometheus.Registry {
	return d.metrics.Registry()
}

// deriveGeneration produces a non-zero, effectively-monotonic generation
// number for a handler that did not supply one: nanoseconds elapsed since
// the driver was constructed. Collisions across process restarts are
// acceptable for a non-NFS-exported filesystem (spec.md §9).
func (d *Driver[T]) deriveGeneration() uint64 {
	elapsed := d.clock.Now().Sub(d.start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return uint64(elapsed)
}

func (d *Driver[T]) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

// entryReply is the (ttl, FileAttribute, inode, generation) tuple shared
// by every entry-producing operation's success path.
type entryReply struct {
	TTL        time.Duration
	Attr       fuseops.FileAttribute
	Inode      fuseops.Inode
	Generation uint64
}

// resolveEntry performs the "split Metadata, look up the inode, attach a
// generation" sequence spec.md §4.E assigns to every entry-producing
// operation's success path.
func (d *Driver[T]) resolveEntry(parent fuseops.Inode, name string, meta Metadata[T]) entryReply {
	inode := d.resolver.Lookup(parent, name, meta.ID, true)
	gen := meta.Attr.Generation
	if gen == 0 {
		gen = d.deriveGeneration()
	}
	return entryReply{
		TTL:        d.ttlOrDefault(meta.Attr.TTL),
		Attr:       meta.Attr,
		Inode:      inode,
		Generation: gen,
	}
}

// dispatch runs fn under the driver's scheduling policy, wrapping it in a
// named reqtrace span and an op-result metric as spec.md §4.E step 5 and
// SPEC_FULL.md §11/§12 describe. opName is used for both the span name
// and the metric label; the error fn returns labels the metric ok/errno
// and is logged when non-nil.
func (d *Driver[T]) dispatch(ctx context.Context, opName string, fn func() error) {
	d.policy.Run(ctx, func() {
		start := time.Now()
		_, report := reqtrace.StartSpan(ctx, opName)
		err := fn()
		report(err)
		d.metrics.observe(opName, err, time.Since(start))
		if err != nil {
			logOperationError(opName, err)
		}
	})
}

// logOperationError applies spec.md §7's severity policy: lookup failures
// are INFO (the kernel probes speculatively), everything else is WARN.
func logOperationError(op string, err error) {
	logger := getLogger()
	if op == "lookup" {
		logger.Printf("INFO %s: %v", op, err)
		return
	}
	logger.Printf("WARN %s: %v", op, err)
}

func logProtocolViolation(op string, detail string) {
	getLogger().Printf("ERROR %s: protocol violation: %s", op, detail)
}

// --- THE CORE: per-operation translation ---

func (d *Driver[T]) Init(ctx context.Context, info RequestInfo, reply func(error)) {
	d.dispatch(ctx, "init", func() error {
		err := d.handler.Init(info)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Destroy(ctx context.Context, info RequestInfo, reply func()) {
	d.dispatch(ctx, "destroy", func() error {
		d.handler.Destroy(info)
		reply()
		return nil
	})
}

func (d *Driver[T]) Lookup(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, reply func(entryReply, error)) {
	d.dispatch(ctx, "lookup", func() error {
		parent := d.resolver.ResolveID(parentInode)
		meta, err := d.handler.Lookup(info, parent, name)
		if err != nil {
			reply(entryReply{}, err)
			return err
		}
		reply(d.resolveEntry(parentInode, name, meta), nil)
		return nil
	})
}

// Forget fans out to the handler and the resolver independently, handler
// first: spec.md §9's Open Question answer. It never replies to the
// kernel (FUSE's FORGET has no response).
func (d *Driver[T]) Forget(ctx context.Context, info RequestInfo, inode fuseops.Inode, nlookup uint64) {
	d.dispatch(ctx, "forget", func() error {
		id := d.resolver.ResolveID(inode)
		d.handler.Forget(info, id, nlookup)
		d.resolver.Forget(inode, nlookup)
		d.readdirStore.dropAll(inode)
		d.readdirplusStore.dropAll(inode)
		return nil
	})
}

func (d *Driver[T]) GetAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh *FileHandle, reply func(time.Duration, fuseops.FileAttribute, error)) {
	d.dispatch(ctx, "getattr", func() error {
		id := d.resolver.ResolveID(inode)
		attr, err := d.handler.GetAttr(info, id, fh)
		if err != nil {
			reply(0, fuseops.FileAttribute{}, err)
			return err
		}
		reply(d.ttlOrDefault(attr.TTL), attr, nil)
		return nil
	})
}

func (d *Driver[T]) SetAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, req SetAttrRequest, reply func(time.Duration, fuseops.FileAttribute, error)) {
	d.dispatch(ctx, "setattr", func() error {
		id := d.resolver.ResolveID(inode)
		attr, err := d.handler.SetAttr(info, id, req)
		if err != nil {
			reply(0, fuseops.FileAttribute{}, err)
			return err
		}
		reply(d.ttlOrDefault(attr.TTL), attr, nil)
		return nil
	})
}

func (d *Driver[T]) ReadLink(ctx context.Context, info RequestInfo, inode fuseops.Inode, reply func(string, error)) {
	d.dispatch(ctx, "readlink", func() error {
		id := d.resolver.ResolveID(inode)
		target, err := d.handler.ReadLink(info, id)
		reply(target, err)
		return err
	})
}

func (d *Driver[T]) MkNod(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, mode uint32, dev fuseops.DeviceType, umask uint32, reply func(entryReply, error)) {
	d.dispatch(ctx, "mknod", func() error {
		parent := d.resolver.ResolveID(parentInode)
		meta, err := d.handler.MkNod(info, parent, name, mode, dev, umask)
		if err != nil {
			reply(entryReply{}, err)
			return err
		}
		reply(d.resolveEntry(parentInode, name, meta), nil)
		return nil
	})
}

func (d *Driver[T]) MkDir(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, mode uint32, umask uint32, reply func(entryReply, error)) {
	d.dispatch(ctx, "mkdir", func() error {
		parent := d.resolver.ResolveID(parentInode)
		meta, err := d.handler.MkDir(info, parent, name, mode, umask)
		if err != nil {
			reply(entryReply{}, err)
			return err
		}
		reply(d.resolveEntry(parentInode, name, meta), nil)
		return nil
	})
}

func (d *Driver[T]) Unlink(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, reply func(error)) {
	d.dispatch(ctx, "unlink", func() error {
		parent := d.resolver.ResolveID(parentInode)
		err := d.handler.Unlink(info, parent, name)
		reply(err)
		return err
	})
}

func (d *Driver[T]) RmDir(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, reply func(error)) {
	d.dispatch(ctx, "rmdir", func() error {
		parent := d.resolver.ResolveID(parentInode)
		err := d.handler.RmDir(info, parent, name)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Symlink(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, target string, reply func(entryReply, error)) {
	d.dispatch(ctx, "symlink", func() error {
		parent := d.resolver.ResolveID(parentInode)
		meta, err := d.handler.Symlink(info, parent, name, target)
		if err != nil {
			reply(entryReply{}, err)
			return err
		}
		reply(d.resolveEntry(parentInode, name, meta), nil)
		return nil
	})
}

func (d *Driver[T]) Rename(ctx context.Context, info RequestInfo, oldParentInode fuseops.Inode, oldName string, newParentInode fuseops.Inode, newName string, flags RenameFlags, reply func(error)) {
	d.dispatch(ctx, "rename", func() error {
		oldParent := d.resolver.ResolveID(oldParentInode)
		newParent := d.resolver.ResolveID(newParentInode)
		err := d.handler.Rename(info, oldParent, oldName, newParent, newName, flags)
		if err != nil {
			reply(err)
			return err
		}
		d.resolver.Rename(oldParentInode, oldName, newParentInode, newName)
		reply(nil)
		return nil
	})
}

func (d *Driver[T]) Link(ctx context.Context, info RequestInfo, inode fuseops.Inode, newParentInode fuseops.Inode, newName string, reply func(entryReply, error)) {
	d.dispatch(ctx, "link", func() error {
		id := d.resolver.ResolveID(inode)
		newParent := d.resolver.ResolveID(newParentInode)
		meta, err := d.handler.Link(info, id, newParent, newName)
		if err != nil {
			reply(entryReply{}, err)
			return err
		}
		reply(d.resolveEntry(newParentInode, newName, meta), nil)
		return nil
	})
}

func (d *Driver[T]) Open(ctx context.Context, info RequestInfo, inode fuseops.Inode, flags OpenFlags, reply func(OpenResult, error)) {
	d.dispatch(ctx, "open", func() error {
		id := d.resolver.ResolveID(inode)
		res, err := d.handler.Open(info, id, flags)
		reply(res, err)
		return err
	})
}

func (d *Driver[T]) Read(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, offset int64, size uint32, reply func([]byte, error)) {
	d.dispatch(ctx, "read", func() error {
		id := d.resolver.ResolveID(inode)
		data, err := d.handler.Read(info, id, fh, offset, size)
		reply(data, err)
		return err
	})
}

func (d *Driver[T]) Write(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, offset int64, data []byte, flags uint32, reply func(uint32, error)) {
	d.dispatch(ctx, "write", func() error {
		id := d.resolver.ResolveID(inode)
		n, err := d.handler.Write(info, id, fh, offset, data, flags)
		reply(n, err)
		return err
	})
}

func (d *Driver[T]) Flush(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, lockOwner uint64, reply func(error)) {
	d.dispatch(ctx, "flush", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.Flush(info, id, fh, lockOwner)
		reply(err)
		return err
	})
}

// Release is the exclusive release point for a handle opened by Open;
// the driver guarantees exactly one call per open (spec.md §4.C).
func (d *Driver[T]) Release(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, flags OpenFlags, flush bool, reply func(error)) {
	d.dispatch(ctx, "release", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.Release(info, id, fh, flags, flush)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Fsync(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, datasync bool, reply func(error)) {
	d.dispatch(ctx, "fsync", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.Fsync(info, id, fh, datasync)
		reply(err)
		return err
	})
}

func (d *Driver[T]) OpenDir(ctx context.Context, info RequestInfo, inode fuseops.Inode, flags OpenFlags, reply func(OpenResult, error)) {
	d.dispatch(ctx, "opendir", func() error {
		id := d.resolver.ResolveID(inode)
		res, err := d.handler.OpenDir(info, id, flags)
		reply(res, err)
		return err
	})
}

func (d *Driver[T]) ReleaseDir(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, reply func(error)) {
	d.dispatch(ctx, "releasedir", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.ReleaseDir(info, id, fh)
		d.readdirStore.dropAll(inode)
		d.readdirplusStore.dropAll(inode)
		reply(err)
		return err
	})
}

func (d *Driver[T]) FsyncDir(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, datasync bool, reply func(error)) {
	d.dispatch(ctx, "fsyncdir", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.FsyncDir(info, id, fh, datasync)
		reply(err)
		return err
	})
}

func (d *Driver[T]) StatFs(ctx context.Context, info RequestInfo, inode fuseops.Inode, reply func(StatFs, error)) {
	d.dispatch(ctx, "statfs", func() error {
		id := d.resolver.ResolveID(inode)
		s, err := d.handler.StatFs(info, id)
		reply(s, err)
		return err
	})
}

func (d *Driver[T]) SetXAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, name string, value []byte, flags XattrFlags, reply func(error)) {
	d.dispatch(ctx, "setxattr", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.SetXAttr(info, id, name, value, flags)
		reply(err)
		return err
	})
}

// GetXAttr honors the kernel's two-phase size-probe protocol: size == 0
// asks for the required buffer size, size > 0 asks for the data.
func (d *Driver[T]) GetXAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, name string, size uint32, reply func(value []byte, requiredSize uint32, err error)) {
	d.dispatch(ctx, "getxattr", func() error {
		id := d.resolver.ResolveID(inode)
		value, err := d.handler.GetXAttr(info, id, name, size)
		if err != nil {
			reply(nil, 0, err)
			return err
		}
		if size == 0 {
			reply(nil, uint32(len(value)), nil)
			return nil
		}
		if uint32(len(value)) > size {
			reply(nil, 0, ErrResultTooLarge)
			return ErrResultTooLarge
		}
		reply(value, 0, nil)
		return nil
	})
}

func (d *Driver[T]) ListXAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, size uint32, reply func(value []byte, requiredSize uint32, err error)) {
	d.dispatch(ctx, "listxattr", func() error {
		id := d.resolver.ResolveID(inode)
		value, err := d.handler.ListXAttr(info, id, size)
		if err != nil {
			reply(nil, 0, err)
			return err
		}
		if size == 0 {
			reply(nil, uint32(len(value)), nil)
			return nil
		}
		if uint32(len(value)) > size {
			reply(nil, 0, ErrResultTooLarge)
			return ErrResultTooLarge
		}
		reply(value, 0, nil)
		return nil
	})
}

func (d *Driver[T]) RemoveXAttr(ctx context.Context, info RequestInfo, inode fuseops.Inode, name string, reply func(error)) {
	d.dispatch(ctx, "removexattr", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.RemoveXAttr(info, id, name)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Access(ctx context.Context, info RequestInfo, inode fuseops.Inode, mask AccessMask, reply func(error)) {
	d.dispatch(ctx, "access", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.Access(info, id, mask)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Create(ctx context.Context, info RequestInfo, parentInode fuseops.Inode, name string, mode uint32, flags OpenFlags, umask uint32, reply func(entryReply, FileHandle, uint32, error)) {
	d.dispatch(ctx, "create", func() error {
		parent := d.resolver.ResolveID(parentInode)
		res, err := d.handler.Create(info, parent, name, mode, flags, umask)
		if err != nil {
			reply(entryReply{}, 0, 0, err)
			return err
		}
		reply(d.resolveEntry(parentInode, name, res.Metadata), res.Handle, res.OpenFlags, nil)
		return nil
	})
}

func (d *Driver[T]) GetLk(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, lock LockInfo, reply func(LockInfo, error)) {
	d.dispatch(ctx, "getlk", func() error {
		id := d.resolver.ResolveID(inode)
		l, err := d.handler.GetLk(info, id, fh, lock)
		reply(l, err)
		return err
	})
}

func (d *Driver[T]) SetLk(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, lock LockInfo, sleep bool, reply func(error)) {
	d.dispatch(ctx, "setlk", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.SetLk(info, id, fh, lock, sleep)
		reply(err)
		return err
	})
}

func (d *Driver[T]) BMap(ctx context.Context, info RequestInfo, inode fuseops.Inode, blockSize uint32, block uint64, reply func(uint64, error)) {
	d.dispatch(ctx, "bmap", func() error {
		id := d.resolver.ResolveID(inode)
		b, err := d.handler.BMap(info, id, blockSize, block)
		reply(b, err)
		return err
	})
}

func (d *Driver[T]) Ioctl(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, cmd uint32, flags uint32, inData []byte, outSize uint32, reply func(IoctlResult, error)) {
	d.dispatch(ctx, "ioctl", func() error {
		id := d.resolver.ResolveID(inode)
		res, err := d.handler.Ioctl(info, id, fh, cmd, flags, inData, outSize)
		reply(res, err)
		return err
	})
}

func (d *Driver[T]) Fallocate(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, offset int64, length int64, mode FallocateFlags, reply func(error)) {
	d.dispatch(ctx, "fallocate", func() error {
		id := d.resolver.ResolveID(inode)
		err := d.handler.Fallocate(info, id, fh, offset, length, mode)
		reply(err)
		return err
	})
}

func (d *Driver[T]) Lseek(ctx context.Context, info RequestInfo, inode fuseops.Inode, fh FileHandle, rawWhence int32, offset int64, reply func(int64, error)) {
	d.dispatch(ctx, "lseek", func() error {
		seek, err := SeekFromRaw(rawWhence, offset)
		if err != nil {
			logProtocolViolation("lseek", fmt.Sprintf("whence=%d", rawWhence))
			reply(0, err)
			return err
		}
		id := d.resolver.ResolveID(inode)
		n, err := d.handler.Lseek(info, id, fh, seek)
		reply(n, err)
		return err
	})
}

func (d *Driver[T]) CopyFileRange(ctx context.Context, info RequestInfo, inodeIn fuseops.Inode, fhIn FileHandle, offIn int64, inodeOut fuseops.Inode, fhOut FileHandle, offOut int64, length uint64, flags uint32, reply func(uint32, error)) {
	d.dispatch(ctx, "copy_file_range", func() error {
		// Treated as two independent identity triples, resolved
		// separately: see spec.md §9's Open Question on copy_file_range
		// argument binding.
		idIn := d.resolver.ResolveID(inodeIn)
		idOut := d.resolver.ResolveID(inodeOut)
		n, err := d.handler.CopyFileRange(info, idIn, fhIn, offIn, idOut, fhOut, offOut, length, flags)
		reply(n, err)
		return err
	})
}
