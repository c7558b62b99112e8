//go:build linux

package forward

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/hnrobert/key2root/internal/secret"
)

// HelperEnv marks a process started to finish writing a channel.
const HelperEnv = "KEY2ROOT_FORWARD_HELPER"

// senderFD is where the helper finds the sending end.
const senderFD = 3

// Executable is the program started as helper. It must call
// RunHelperIfRequested before doing anything else.
var Executable = os.Executable

// Forward moves sec into a new channel and returns its receiving end. sec is
// emptied as its bytes are handed off. Whatever does not fit into the socket
// buffer is written by a helper process that exits once done; the caller
// never waits for it. A reader of the returned end sees EOF after the last
// byte.
func Forward(sec *secret.Secret) (*Receiver, error) {
	snd, rcv, err := NewChannel()
	if err != nil {
		return nil, err
	}
	defer snd.Close()

	if err := snd.sendNonblock(sec); err != nil {
		rcv.Close()
		return nil, err
	}
	if sec.Len() > 0 {
		if err := startHelper(snd, sec); err != nil {
			rcv.Close()
			return nil, err
		}
	}
	return rcv, nil
}

// sendNonblock writes as much of sec as the socket accepts without blocking.
func (s *Sender) sendNonblock(sec *secret.Secret) error {
	if err := unix.SetNonblock(s.fd, true); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	for sec.Len() > 0 {
		n, err := unix.Write(s.fd, sec.Bytes())
		if n > 0 {
			sec.Consume(n)
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			break
		}
		if err != nil {
			return os.NewSyscallError("write", err)
		}
	}
	if err := unix.SetNonblock(s.fd, false); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	return nil
}

// Send writes all of sec, blocking as needed, erasing it as it goes.
func (s *Sender) Send(sec *secret.Secret) error {
	for sec.Len() > 0 {
		n, err := s.f.Write(sec.Bytes())
		sec.Consume(n)
		if err != nil {
			return err
		}
	}
	return nil
}

func startHelper(snd *Sender, sec *secret.Secret) error {
	exe, err := Executable()
	if err != nil {
		return fmt.Errorf("locate helper: %w", err)
	}
	cmd := exec.Command(exe)
	cmd.Env = []string{HelperEnv + "=1"}
	cmd.ExtraFiles = []*os.File{snd.f}
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start helper: %w", err)
	}
	defer cmd.Process.Release()

	for sec.Len() > 0 {
		n, err := in.Write(sec.Bytes())
		sec.Consume(n)
		if err != nil {
			in.Close()
			return fmt.Errorf("feed helper: %w", err)
		}
	}
	return in.Close()
}

// RunHelperIfRequested turns the process into a forwarding helper when it
// was started as one, and never returns in that case.
func RunHelperIfRequested() {
	if os.Getenv(HelperEnv) != "1" {
		return
	}
	os.Exit(runHelper(os.Stdin, os.NewFile(senderFD, "key2root-sender")))
}

func runHelper(in io.Reader, out *os.File) int {
	if out == nil {
		return 1
	}
	sec, err := secret.ReadAll(in)
	if err != nil {
		return 1
	}
	defer sec.Destroy()
	snd := &Sender{f: out, fd: int(out.Fd())}
	if err := snd.Send(sec); err != nil && !errors.Is(err, unix.EPIPE) {
		return 1
	}
	return 0
}
