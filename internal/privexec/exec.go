package privexec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Exit statuses of key2root. Any other status is the command's own.
const (
	ExitAuthFailed = 124
	ExitInternal   = 125
	ExitCannotExec = 126
	ExitNotFound   = 127
)

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrCannotExecute   = errors.New("cannot execute command")
)

// LookPath finds file in the colon separated search path. A name containing
// a slash is used as given. An empty path element means the current
// directory.
func LookPath(file, path string) (string, error) {
	if strings.Contains(file, "/") {
		if err := executable(file); err != nil {
			return "", wrapExec(file, err)
		}
		return file, nil
	}
	var denied error
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, file)
		err := executable(p)
		if err == nil {
			return p, nil
		}
		if denied == nil && !errors.Is(err, fs.ErrNotExist) {
			denied = err
		}
	}
	if denied != nil {
		return "", wrapExec(file, denied)
	}
	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, file)
}

func executable(p string) error {
	st, err := os.Stat(p)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return syscall.EACCES
	}
	if st.Mode().Perm()&0111 == 0 {
		return fs.ErrPermission
	}
	return nil
}

// wrapExec classifies an exec or lookup failure.
func wrapExec(file string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, file)
	}
	return fmt.Errorf("%w: %s: %v", ErrCannotExecute, file, err)
}

// ExitCode maps an exec failure to its status.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ErrCommandNotFound):
		return ExitNotFound
	case errors.Is(err, ErrCannotExecute):
		return ExitCannotExec
	default:
		return ExitInternal
	}
}
