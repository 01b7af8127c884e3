// Command mirror mounts a mirror of a host directory, the Go
// counterpart of the teacher's samples/roloopbackfs + samples/
// mount_roloopbackfs. Unlike the teacher's read-only-only sample, it
// mounts read-write by default (handlers/mirrorfs.New) and read-only
// when --read_only is passed (handlers/mirrorfs.NewReadOnly), since
// SPEC_FULL.md's mirror handler implements both.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/go-easyfuse/easyfuse"
	"github.com/go-easyfuse/easyfuse/handlers/mirrorfs"
)

var (
	fMountPoint = flag.String("mount_point", "", "Path to mount point.")
	fDir        = flag.String("dir", "", "Path to the directory to mirror.")
	fReadOnly   = flag.Bool("read_only", false, "Mount in read-only mode.")
	fDebug      = flag.Bool("debug", false, "Enable debug logging.")
	fThreads    = flag.Int("num_threads", 0, "Worker pool width; 0 runs every request inline.")
)

func main() {
	flag.Parse()
	if *fMountPoint == "" {
		log.Fatalf("you must set --mount_point")
	}
	if *fDir == "" {
		log.Fatalf("you must set --dir")
	}

	var handler easyfuse.Handler[easyfuse.Path]
	if *fReadOnly {
		handler = mirrorfs.NewReadOnly(*fDir)
	} else {
		handler = mirrorfs.New(*fDir)
	}

	var policy easyfuse.SchedulePolicy = easyfuse.Serial{}
	if *fThreads > 0 {
		policy = easyfuse.NewParallel(*fThreads)
	}

	opts := easyfuse.MountOptions{
		FSName:   "mirror",
		ReadOnly: *fReadOnly,
	}
	if *fDebug {
		opts.Options = []string{"debug"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := easyfuse.Mount[easyfuse.Path](ctx, *fMountPoint, handler, easyfuse.NewPathResolver(), policy, opts)
	if err != nil {
		log.Fatalf("Mount: %v", err)
	}
}
