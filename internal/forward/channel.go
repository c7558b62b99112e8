//go:build linux

// Package forward hands key material to a process that is about to be
// exec'd. The material travels over a connected socket pair on which each end
// was shut down in the direction it must not use, so the receiving process can
// neither write back into the channel nor read what it sends.
package forward

import (
	"os"

	"golang.org/x/sys/unix"
)

// Sender is the write-only end of a channel.
type Sender struct {
	f  *os.File
	fd int
}

// Receiver is the read-only end of a channel.
type Receiver struct {
	f *os.File
}

// NewChannel creates a channel. Both ends are close-on-exec.
func NewChannel() (*Sender, *Receiver, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}
	if err := unix.Shutdown(fds[0], unix.SHUT_WR); err != nil {
		closeFds(fds)
		return nil, nil, os.NewSyscallError("shutdown", err)
	}
	if err := unix.Shutdown(fds[1], unix.SHUT_RD); err != nil {
		closeFds(fds)
		return nil, nil, os.NewSyscallError("shutdown", err)
	}
	snd := &Sender{f: os.NewFile(uintptr(fds[1]), "key2root-sender"), fd: fds[1]}
	rcv := &Receiver{f: os.NewFile(uintptr(fds[0]), "key2root-receiver")}
	return snd, rcv, nil
}

func closeFds(fds [2]int) {
	_ = unix.Close(fds[0])
	_ = unix.Close(fds[1])
}

func (s *Sender) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *Sender) Close() error { return s.f.Close() }

func (r *Receiver) Read(p []byte) (int, error) { return r.f.Read(p) }

func (r *Receiver) Close() error { return r.f.Close() }

// Fd returns the descriptor of the receiving end.
func (r *Receiver) Fd() int { return int(r.f.Fd()) }
