//go:build linux

package easyfuse

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/go-easyfuse/easyfuse/internal/buffer"
)

// fuseSession wraps the open /dev/fuse file descriptor the fusermount
// helper hands back, implementing Session directly over it.
type fuseSession struct {
	dev *os.File
}

func (s *fuseSession) ReadMessage(m *buffer.InMessage) error {
	err := m.Init(s.dev)
	// The kernel answers a read on an unmounted /dev/fuse with ENODEV, and
	// a read after Close fails with os.ErrClosed; both end the session.
	if errors.Is(err, unix.ENODEV) || errors.Is(err, os.ErrClosed) {
		return errSessionClosed
	}
	return err
}

func (s *fuseSession) WriteMessage(data []byte) error {
	_, err := s.dev.Write(data)
	return err
}

func (s *fuseSession) Close() error {
	return s.dev.Close()
}

func openSession(mountpoint string, opts MountOptions) (Session, error) {
	dev, err := mountViaFusermount(mountpoint, opts)
	if err != nil {
		return nil, err
	}
	return &fuseSession{dev: dev}, nil
}

func mountOptionsString(opts MountOptions) string {
	fields := []string{
		"fsname=" + optOrDefault(opts.FSName, "easyfuse"),
		"subtype=" + optOrDefault(opts.Subtype, "easyfuse"),
	}
	if opts.ReadOnly {
		fields = append(fields, "ro")
	}
	if opts.AllowOther {
		fields = append(fields, "allow_other")
	}
	fields = append(fields, opts.Options...)
	return strings.Join(fields, ",")
}

func optOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// mountViaFusermount performs the same privilege-separated handshake every
// libfuse-based tool uses to mount without running as root: open a unix
// socketpair, exec the setuid fusermount helper with one end passed as fd
// 3 and _FUSE_COMMFD=3 in its environment, and read the kernel's
// /dev/fuse descriptor back over the socket as an SCM_RIGHTS control
// message. fusermount performs the mount(2) call itself; we never need
// CAP_SYS_ADMIN.
func mountViaFusermount(mountpoint string, opts MountOptions) (*os.File, error) {
	sockets, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socketpair: %w", err)
	}
	parent := os.NewFile(uintptr(sockets[0]), "fusermount-parent")
	child := os.NewFile(uintptr(sockets[1]), "fusermount-child")
	defer child.Close()

	bin, err := exec.LookPath("fusermount3")
	if err != nil {
		bin, err = exec.LookPath("fusermount")
	}
	if err != nil {
		parent.Close()
		return nil, fmt.Errorf("easyfuse: fusermount not found in PATH: %w", err)
	}

	cmd := exec.Command(bin, "-o", mountOptionsString(opts), "--", mountpoint)
	cmd.Env = append(os.Environ(), "_FUSE_COMMFD=3")
	cmd.ExtraFiles = []*os.File{child}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		parent.Close()
		return nil, fmt.Errorf("fusermount: %w", err)
	}

	fd, err := recvDevFd(parent)
	parent.Close()
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "/dev/fuse"), nil
}

// recvDevFd reads the single SCM_RIGHTS-carried file descriptor
// fusermount sends back over sock.
func recvDevFd(sock *os.File) (int, error) {
	buf := make([]byte, 4)
	oob := make([]byte, unix.CmsgSpace(4))

	raw, err := sock.SyscallConn()
	if err != nil {
		return -1, err
	}

	var n, oobn int
	var recvErr error
	if err := raw.Read(func(fd uintptr) bool {
		n, oobn, _, _, recvErr = unix.Recvmsg(int(fd), buf, oob, 0)
		return true
	}); err != nil {
		return -1, err
	}
	if recvErr != nil {
		return -1, recvErr
	}
	if n == 0 {
		return -1, fmt.Errorf("fusermount: empty response")
	}

	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return -1, err
	}
	for _, msg := range msgs {
		fds, err := unix.ParseUnixRights(&msg)
		if err == nil && len(fds) > 0 {
			return fds[0], nil
		}
	}
	return -1, fmt.Errorf("fusermount: no descriptor received")
}
