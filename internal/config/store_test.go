package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/key2root/internal/hostfs"
	"github.com/hnrobert/key2root/internal/keyhash"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "key2root.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), perm))
	require.NoError(t, os.Chmod(p, perm))
	return p
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, keyhash.DefaultParams, cfg.HashParams)
}

func TestLoadEmptyUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "", 0600))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartial(t *testing.T) {
	cfg, err := Load(writeConfig(t, "key_path: /var/lib/key2root\nenv_keep:\n  - EDITOR\n  - GIT_\n", 0644))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/key2root", cfg.KeyPath)
	assert.Equal(t, []string{"EDITOR", "GIT_"}, cfg.EnvKeep)
	assert.Equal(t, defaultSecurePath, cfg.SecurePath)
	assert.Equal(t, keyhash.DefaultParams, cfg.HashParams)
}

func TestLoadRejectsWritableByOthers(t *testing.T) {
	_, err := Load(writeConfig(t, "key_path: /tmp/keys\n", 0666))
	assert.ErrorIs(t, err, ErrInsecureConfig)
}

func TestLoadRejectsForeignOwner(t *testing.T) {
	p := writeConfig(t, "key_path: /tmp/keys\n", 0644)
	old := trustedOwner
	trustedOwner = func(uid int) bool { return false }
	defer func() { trustedOwner = old }()

	_, err := Load(p)
	assert.ErrorIs(t, err, ErrInsecureConfig)
	assert.Contains(t, err.Error(), "owned by uid")
}

func TestLoadVerbose(t *testing.T) {
	cfg, err := Load(writeConfig(t, "verbose: true\n", 0600))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, defaultKeyPath, cfg.KeyPath)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "keypath: /etc/key2root\n", 0600))
	assert.Error(t, err)
}

func TestLoadRejectsRelativeKeyPath(t *testing.T) {
	_, err := Load(writeConfig(t, "key_path: keys\n", 0600))
	assert.Error(t, err)
}

func TestKeyDirUnderRoot(t *testing.T) {
	old := hostfs.Root
	hostfs.Root = "/scratch"
	defer func() { hostfs.Root = old }()

	dir, err := DefaultConfig().KeyDir()
	require.NoError(t, err)
	assert.Equal(t, "/scratch/etc/key2root", dir)
	assert.Equal(t, "/scratch/etc/key2root.yaml", DefaultPath())
}
