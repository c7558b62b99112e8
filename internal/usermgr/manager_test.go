package usermgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/key2root/internal/hostfs"
)

const testPasswd = `# comment line
root:x:0:0:root:/root:/bin/bash
daemon:x:1:1::/usr/sbin:/usr/sbin/nologin
alice:x:1000:1000:Alice:/home/alice:
broken line
`

const testGroup = `root:x:0:
wheel:x:10:alice,root
audio:x:29:alice
video:x:44:bob
alice:x:1000:
adm:x:4:root
`

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	old := hostfs.Root
	hostfs.Root = t.TempDir()
	t.Cleanup(func() { hostfs.Root = old })

	require.NoError(t, os.MkdirAll(filepath.Join(hostfs.Root, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(hostfs.Root, "etc/passwd"), []byte(testPasswd), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(hostfs.Root, "etc/group"), []byte(testGroup), 0644))

	m, err := NewDefault()
	require.NoError(t, err)
	return m
}

func TestLookupUID(t *testing.T) {
	m := newTestManager(t)

	id, err := m.LookupUID(1000)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Name)
	assert.Equal(t, "/home/alice", id.Home)
	assert.Equal(t, "/bin/sh", id.Shell, "empty shell falls back")
	assert.Nil(t, id.Groups)

	_, err = m.LookupUID(4242)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveGroups(t *testing.T) {
	m := newTestManager(t)

	id, err := m.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, "root", id.Name)
	assert.Equal(t, "/bin/bash", id.Shell)
	assert.Equal(t, []int{0, 10, 4}, id.Groups)

	id, err = m.Resolve(1000)
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 10, 29}, id.Groups)
}

func TestLoadPasswdBadUID(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "passwd")
	require.NoError(t, os.WriteFile(p, []byte("x:x:notanumber:0::/:/bin/sh\n"), 0644))
	_, err := LoadPasswd(p)
	assert.Error(t, err)
}
