// Package secret holds key material read from standard input.
//
// A Secret owns its buffer exclusively. The buffer is locked into memory where
// the platform allows it, and Destroy zeroes it before it is released. Growing
// the buffer erases the previous backing array.
package secret

import (
	"errors"
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/hnrobert/key2root/internal/keyhash"
	"github.com/hnrobert/key2root/internal/logger"
)

const chunk = 1024

var ErrDestroyed = errors.New("secret already destroyed")

var lockWarnOnce sync.Once

type Secret struct {
	buf    []byte // len(buf) is the capacity in use; n bytes are valid
	n      int
	locked bool
	gone   bool
}

// ReadAll reads r until EOF into a new Secret. On error everything read so
// far is erased.
func ReadAll(r io.Reader) (*Secret, error) {
	s := &Secret{}
	for {
		if s.n == len(s.buf) {
			s.grow(len(s.buf) + chunk)
		}
		m, err := r.Read(s.buf[s.n:])
		s.n += m
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			s.Destroy()
			return nil, err
		}
	}
}

// New copies b into a new Secret and erases b.
func New(b []byte) *Secret {
	s := &Secret{}
	s.grow(len(b))
	s.n = copy(s.buf, b)
	keyhash.Erase(b)
	return s
}

func (s *Secret) grow(size int) {
	nb := make([]byte, size)
	locked := lockBuf(nb)
	copy(nb, s.buf[:s.n])
	s.release()
	s.buf = nb
	s.locked = locked
}

func (s *Secret) release() {
	keyhash.Erase(s.buf)
	if s.locked && len(s.buf) > 0 {
		_ = unix.Munlock(s.buf)
	}
	s.buf = nil
	s.locked = false
}

// Bytes returns the secret. The slice aliases the secret's buffer and must not
// outlive it.
func (s *Secret) Bytes() []byte {
	if s == nil || s.gone {
		return nil
	}
	return s.buf[:s.n]
}

func (s *Secret) Len() int {
	if s == nil || s.gone {
		return 0
	}
	return s.n
}

// Move transfers the buffer to a new Secret and leaves s destroyed.
func (s *Secret) Move() (*Secret, error) {
	if s.gone {
		return nil, ErrDestroyed
	}
	t := &Secret{buf: s.buf, n: s.n, locked: s.locked}
	s.buf, s.n, s.locked, s.gone = nil, 0, false, true
	return t, nil
}

// Consume erases the first n bytes and drops them from the secret.
func (s *Secret) Consume(n int) {
	if s.gone || n <= 0 {
		return
	}
	if n > s.n {
		n = s.n
	}
	keyhash.Erase(s.buf[:n])
	copy(s.buf, s.buf[n:s.n])
	keyhash.Erase(s.buf[s.n-n : s.n])
	s.n -= n
}

// Destroy erases and unlocks the buffer. It is safe to call more than once.
func (s *Secret) Destroy() {
	if s == nil || s.gone {
		return
	}
	s.release()
	s.n = 0
	s.gone = true
}

func lockBuf(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if err := unix.Mlock(b); err != nil {
		lockWarnOnce.Do(func() {
			logger.Warn("mlock: %v; key material may be swapped out", err)
		})
		return false
	}
	return true
}
