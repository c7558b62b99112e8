package keystore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hnrobert/key2root/internal/hostfs"
	"github.com/hnrobert/key2root/internal/logger"
)

var (
	ErrKeyExists = errors.New("key already exists")
	ErrDamaged   = errors.New("key file is damaged")
)

const (
	dirPerm  = 0700
	filePerm = 0600
)

// Store is the directory holding one key file per principal.
type Store struct {
	Dir string

	// Warn receives corrupt-record and truncation reports.
	Warn func(format string, args ...interface{})
}

func New(dir string) *Store {
	return &Store{Dir: dir, Warn: logger.Warn}
}

// Path returns the key file of principal.
func (s *Store) Path(principal string) (string, error) {
	if err := ValidatePrincipal(principal); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, principal), nil
}

// Add stores rec for principal. If a record with the same name exists, it is
// replaced in place when replace is set and ErrKeyExists is returned
// otherwise. New records go after the last terminated line. The key file and
// directory are created on first use.
func (s *Store) Add(principal string, rec Record, replace bool) error {
	path, err := s.Path(principal)
	if err != nil {
		return err
	}
	if err := ValidateKeyName(rec.Name); err != nil {
		return err
	}
	if err := ValidateHash(rec.Hash); err != nil {
		return err
	}
	if err := hostfs.EnsureDir(s.Dir, dirPerm); err != nil {
		return err
	}

	unlock := hostfs.Lock(path)
	defer unlock()

	found := false
	sc, err := s.scan(path, func(sc *Scanner, ev Event) (bool, error) {
		if !ev.Matches(rec.Name) || found {
			return false, nil
		}
		if !replace {
			return true, fmt.Errorf("%w for %s: %s", ErrKeyExists, principal, rec.Name)
		}
		sc.Replace(rec.Line())
		found = true
		return false, nil
	})
	if err != nil {
		return err
	}

	data := sc.Bytes()
	if !found {
		at := sc.Offset()
		data = Splice(data, at, at, rec.Line())
	}
	return hostfs.WriteFileAtomic(path, data, filePerm)
}

// Remove deletes the records named in names from principal's key file in a
// single pass and returns the names that were not found. Each name removes at
// most one record. The file is deleted once it becomes empty.
func (s *Store) Remove(principal string, names []string) ([]string, error) {
	path, err := s.Path(principal)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if err := ValidateKeyName(n); err != nil {
			return nil, err
		}
	}

	unlock := hostfs.Lock(path)
	defer unlock()

	pending := slices.Clone(names)
	sc, err := s.scan(path, func(sc *Scanner, ev Event) (bool, error) {
		if ev.Kind != EventRecord {
			return false, nil
		}
		if i := slices.Index(pending, ev.Record.Name); i >= 0 {
			pending = slices.Delete(pending, i, i+1)
			sc.Replace(nil)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if len(pending) == len(names) {
		return pending, nil
	}
	if err := hostfs.WriteFileAtomic(path, sc.Bytes(), filePerm); err != nil {
		return nil, err
	}
	return pending, nil
}

// List calls fn for every valid record of principal, in file order. A
// missing key file has no records. Corrupt or truncated lines are reported
// and skipped, and make List return ErrDamaged once the whole file was read.
func (s *Store) List(principal string, fn func(Record)) error {
	path, err := s.Path(principal)
	if err != nil {
		return err
	}
	damaged := false
	_, err = s.scan(path, func(_ *Scanner, ev Event) (bool, error) {
		if ev.Kind == EventRecord {
			fn(ev.Record)
		} else {
			damaged = true
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if damaged {
		return fmt.Errorf("%w: %s", ErrDamaged, path)
	}
	return nil
}

// Find calls fn for every valid record of principal until fn returns true.
// It reports whether fn did.
func (s *Store) Find(principal string, fn func(Record) bool) (bool, error) {
	path, err := s.Path(principal)
	if err != nil {
		return false, err
	}
	hit := false
	_, err = s.scan(path, func(_ *Scanner, ev Event) (bool, error) {
		if ev.Kind == EventRecord && fn(ev.Record) {
			hit = true
			return true, nil
		}
		return false, nil
	})
	return hit, err
}

// Principals lists the names that have a key file, skipping hidden entries
// and write-back siblings. A missing key directory has none.
func (s *Store) Principals() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.Contains(name, hostfs.TempSuffix) || e.IsDir() {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// scan runs visit over every event of path. Non-record events are reported
// before visit sees them. visit stops the scan by returning true.
func (s *Store) scan(path string, visit func(*Scanner, Event) (bool, error)) (*Scanner, error) {
	f, err := hostfs.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if f != nil {
		defer f.Close()
		r = f
	}

	sc := NewScanner(r)
	for sc.Scan() {
		ev := sc.Event()
		s.report(path, ev)
		stop, err := visit(sc, ev)
		if err != nil {
			return nil, err
		}
		if stop {
			return sc, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return sc, nil
}

func (s *Store) report(path string, ev Event) {
	warn := s.Warn
	if warn == nil {
		warn = logger.Warn
	}
	switch ev.Kind {
	case EventCorrupt:
		if ev.NUL {
			warn("NUL byte found in %s on line %d", path, ev.Line)
		}
		if ev.NoSP {
			warn("no SP byte found in %s on line %d", path, ev.Line)
		}
	case EventTruncated:
		warn("file truncated: %s", path)
	case EventTruncatedNUL:
		warn("NUL byte found in %s on line %d", path, ev.Line)
	}
}
