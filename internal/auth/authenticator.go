package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hnrobert/key2root/internal/keyhash"
	"github.com/hnrobert/key2root/internal/keystore"
	"github.com/hnrobert/key2root/internal/logger"
)

var (
	// ErrKeyNotFound means no record carries the requested key name.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyMismatch means the requested key exists but did not verify.
	ErrKeyMismatch = errors.New("key mismatch")
	// ErrNoKeyVerified means no key name was requested and no record verified.
	ErrNoKeyVerified = errors.New("no matching key found")
)

// Caller identifies whose key files are searched.
type Caller struct {
	UID  int
	Name string // empty when the uid has no passwd entry
}

// Principals returns the key file names searched for c, in order.
// Both are searched even when they name the same user.
func (c Caller) Principals() []string {
	out := []string{strconv.Itoa(c.UID)}
	if c.Name != "" {
		out = append(out, c.Name)
	}
	return out
}

// Match is a successful authentication.
type Match struct {
	Principal string
	KeyName   string
}

type Authenticator struct {
	Store *keystore.Store

	// Verify defaults to keyhash.Verify.
	Verify func(key []byte, encoded string) (bool, error)
}

func New(store *keystore.Store) *Authenticator {
	return &Authenticator{Store: store, Verify: keyhash.Verify}
}

// Authenticate searches the key files of c for a record that key verifies
// against. With a non-empty keyName only records of that name are tried;
// otherwise every valid record is tried in file order. Records with an
// unusable hash are reported and skipped.
func (a *Authenticator) Authenticate(c Caller, keyName string, key []byte) (Match, error) {
	verify := a.Verify
	if verify == nil {
		verify = keyhash.Verify
	}

	named := false
	for _, p := range c.Principals() {
		var m Match
		hit, err := a.Store.Find(p, func(r keystore.Record) bool {
			if keyName != "" && r.Name != keyName {
				return false
			}
			named = true
			ok, err := verify(key, r.Hash)
			if err != nil {
				logger.Warn("unusable hash for key %s of %s: %v", r.Name, p, err)
				return false
			}
			if ok {
				m = Match{Principal: p, KeyName: r.Name}
			}
			return ok
		})
		if errors.Is(err, keystore.ErrInvalidPrincipal) {
			logger.Warn("skipping key file for %q: %v", p, err)
			continue
		}
		if err != nil {
			return Match{}, err
		}
		if hit {
			return m, nil
		}
	}

	switch {
	case keyName == "":
		return Match{}, ErrNoKeyVerified
	case !named:
		return Match{}, fmt.Errorf("%w: %s", ErrKeyNotFound, keyName)
	default:
		return Match{}, fmt.Errorf("%w: %s", ErrKeyMismatch, keyName)
	}
}

func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrKeyNotFound):
		return "key not found"
	case errors.Is(err, ErrKeyMismatch):
		return "key mismatch"
	case errors.Is(err, ErrNoKeyVerified):
		return "no matching key found"
	default:
		return fmt.Sprintf("authentication failed: %v", err)
	}
}
