package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/key2root/internal/hostfs"
	"github.com/hnrobert/key2root/internal/keyhash"
)

const (
	defaultKeyPath    = "/etc/key2root"
	defaultSecurePath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
)

var ErrInsecureConfig = errors.New("configuration file is not owned by root or is writable by group or others")

// trustedOwner accepts root, and the effective user for an unprivileged run.
var trustedOwner = func(uid int) bool {
	return uid == 0 || uid == os.Geteuid()
}

type Config struct {
	// KeyPath is the directory holding one key file per user.
	KeyPath string `yaml:"key_path"`
	// HashParams is used by key2root-addkey and key2root-crypt when no
	// parameters are given on the command line.
	HashParams string `yaml:"hash_params"`
	// EnvKeep extends the built-in environment allow-list.
	EnvKeep []string `yaml:"env_keep,omitempty"`
	// SecurePath becomes PATH in a sanitized environment.
	SecurePath string `yaml:"secure_path"`
	// LogDir enables the daily log file when set.
	LogDir string `yaml:"log_dir,omitempty"`
	// Verbose shows informational lines on standard error.
	Verbose bool `yaml:"verbose,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		KeyPath:    defaultKeyPath,
		HashParams: keyhash.DefaultParams,
		SecurePath: defaultSecurePath,
	}
}

func (c Config) IsZero() bool {
	return c.KeyPath == "" &&
		c.HashParams == "" &&
		len(c.EnvKeep) == 0 &&
		c.SecurePath == "" &&
		c.LogDir == "" &&
		!c.Verbose
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.KeyPath == "" {
		c.KeyPath = d.KeyPath
	}
	if c.HashParams == "" {
		c.HashParams = d.HashParams
	}
	if c.SecurePath == "" {
		c.SecurePath = d.SecurePath
	}
	return c
}

// DefaultPath is the configuration file under hostfs.Root.
func DefaultPath() string {
	p, err := hostfs.Path(hostfs.ConfigRel)
	if err != nil {
		return "/" + hostfs.ConfigRel
	}
	return p
}

// Load reads the configuration at path. A missing or empty file yields the
// defaults. The file is never taken from the caller's environment, and one
// that group or others may write, or that another user owns, is refused.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Config{}, err
	}
	if st.Mode().Perm()&0022 != 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrInsecureConfig, path)
	}
	if sys, ok := st.Sys().(*syscall.Stat_t); ok && !trustedOwner(int(sys.Uid)) {
		return Config{}, fmt.Errorf("%w: %s is owned by uid %d", ErrInsecureConfig, path, sys.Uid)
	}

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.IsZero() {
		return DefaultConfig(), nil
	}
	cfg = cfg.WithDefaults()
	if _, err := hostfs.Abs(cfg.KeyPath); err != nil {
		return Config{}, fmt.Errorf("%s: key_path must be absolute: %q", path, cfg.KeyPath)
	}
	return cfg, nil
}

// KeyDir maps KeyPath under hostfs.Root.
func (c Config) KeyDir() (string, error) {
	return hostfs.Abs(c.KeyPath)
}
