package hostfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var globalMu sync.Mutex
var fileMu = map[string]*sync.Mutex{}

func muFor(path string) *sync.Mutex {
	globalMu.Lock()
	defer globalMu.Unlock()
	if m := fileMu[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	fileMu[path] = m
	return m
}

func ReadFile(path string) ([]byte, error) {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()
	return os.ReadFile(path)
}

// Open opens path for reading. A missing file is reported with a nil file and
// a nil error.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// Lock serializes writers of path within this process and returns the unlock
// function. Other processes are not excluded; the last rename wins.
func Lock(path string) func() {
	m := muFor(path)
	m.Lock()
	return m.Unlock
}

// WriteFileAtomic replaces path with data. The data is first written to the
// sibling path+TempSuffix, which must not already exist, and then renamed over
// path. Empty data removes path instead. On failure the sibling is removed and
// path is left untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if len(data) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		syncDir(filepath.Dir(path))
		return nil
	}

	tmpName := path + TempSuffix
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		// An existing sibling is a leftover of a failed or concurrent
		// writer; it is reported, never overwritten.
		return err
	}

	if err := writeAll(tmp, data); err != nil {
		_ = tmp.Close()
		return discard(tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return discard(tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return discard(tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return discard(tmpName, err)
	}
	syncDir(filepath.Dir(path))
	return nil
}

func writeAll(w io.Writer, data []byte) error {
	for off := 0; off < len(data); {
		n, err := w.Write(data[off:])
		off += n
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return err
		}
		if n == 0 && err == nil {
			return io.ErrShortWrite
		}
	}
	return nil
}

func discard(tmpName string, cause error) error {
	if err := os.Remove(tmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w (also failed to remove %s: %v)", cause, tmpName, err)
	}
	return cause
}

func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}

func EnsureDir(path string, perm os.FileMode) error {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()
	return os.MkdirAll(path, perm)
}
