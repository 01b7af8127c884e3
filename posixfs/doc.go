// Package posixfs is the per-OS POSIX wrapper layer spec.md §1 calls out
// as a utility collaborator, not part of THE CORE: stat/open/read/write/
// xattr/flock syscalls wrapped into easyfuse's typed vocabulary. Grounded
// on original_source/src/posix_fs.rs, translated from libc calls to
// golang.org/x/sys/unix the way the teacher's own mount_linux.go and
// samples/roloopbackfs reach for unix.* rather than raw syscall numbers.
package posixfs
