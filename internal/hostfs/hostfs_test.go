package hostfs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	old := Root
	Root = "/srv/host"
	defer func() { Root = old }()

	p, err := Path("etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "/srv/host/etc/passwd", p)

	p, err = Abs("/etc/key2root/")
	require.NoError(t, err)
	assert.Equal(t, "/srv/host/etc/key2root", p)

	for _, bad := range []string{"", "/", "..", "../etc"} {
		_, err := Path(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
	_, err = Abs("etc")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestWriteFileAtomicCreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice")

	require.NoError(t, WriteFileAtomic(path, []byte("k1 h1\n"), 0600))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "k1 h1\n", string(b))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	require.NoError(t, WriteFileAtomic(path, []byte("k2 h2\n"), 0600))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "k2 h2\n", string(b))

	_, err = os.Stat(path + TempSuffix)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteFileAtomicEmptyRemoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice")
	require.NoError(t, os.WriteFile(path, []byte("k1 h1\n"), 0600))

	require.NoError(t, WriteFileAtomic(path, nil, 0600))
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Removing an already missing file is not an error.
	require.NoError(t, WriteFileAtomic(path, nil, 0600))
}

func TestWriteFileAtomicStaleSibling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0600))
	require.NoError(t, os.WriteFile(path+TempSuffix, []byte("stale"), 0600))

	err := WriteFileAtomic(path, []byte("new\n"), 0600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	b, _ := os.ReadFile(path)
	assert.Equal(t, "old\n", string(b))
	b, _ = os.ReadFile(path + TempSuffix)
	assert.Equal(t, "stale", string(b))
}

func TestWriteFileAtomicRenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at the target path makes the rename fail.
	path := filepath.Join(dir, "alice")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "x"), 0700))

	err := WriteFileAtomic(path, []byte("k h\n"), 0600)
	require.Error(t, err)
	_, err = os.Stat(path + TempSuffix)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type shortWriter struct {
	got []byte
	max int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.max {
		p = p[:w.max]
	}
	w.got = append(w.got, p...)
	return len(p), io.ErrShortWrite
}

func TestWriteAllRetriesShortWrites(t *testing.T) {
	w := &shortWriter{max: 3}
	require.NoError(t, writeAll(w, []byte("abcdefgh")))
	assert.Equal(t, "abcdefgh", string(w.got))
}

func TestOpenMissing(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, f)
}
