//go:build linux

package privexec

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/hnrobert/key2root/internal/usermgr"
)

// setIdentity switches every thread of the process to id: supplementary
// groups, then gid, then uid. The syscall package variants apply to all
// threads; the x/sys/unix ones only to the calling thread.
func setIdentity(id *usermgr.Identity) error {
	groups := id.Groups
	if groups == nil {
		groups = []int{id.GID}
	}
	if err := syscall.Setgroups(groups); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := syscall.Setgid(id.GID); err != nil {
		return fmt.Errorf("setgid %d: %w", id.GID, err)
	}
	if err := syscall.Setuid(id.UID); err != nil {
		return fmt.Errorf("setuid %d: %w", id.UID, err)
	}
	return nil
}

// attachStdin makes fd the standard input of the next exec.
func attachStdin(fd int) error {
	if fd == 0 {
		if _, err := unix.FcntlInt(0, unix.F_SETFD, 0); err != nil {
			return fmt.Errorf("fcntl: %w", err)
		}
		return nil
	}
	if err := unix.Dup3(fd, 0, 0); err != nil {
		return fmt.Errorf("dup3: %w", err)
	}
	return nil
}

func execve(path string, argv, env []string) error {
	return syscall.Exec(path, argv, env)
}
