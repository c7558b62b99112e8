package keystore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hnrobert/key2root/internal/keyhash"
)

var (
	ErrInvalidPrincipal = errors.New("bad user name specified")
	ErrInvalidKeyName   = errors.New("bad key name specified")
	ErrInvalidHash      = errors.New("bad hash specified")
)

// Record is one "keyname SP hash LF" line of a store file.
type Record struct {
	Name string
	Hash string
}

// Line returns the serialized record, terminator included.
func (r Record) Line() []byte {
	b := make([]byte, 0, len(r.Name)+len(r.Hash)+2)
	b = append(b, r.Name...)
	b = append(b, ' ')
	b = append(b, r.Hash...)
	return append(b, '\n')
}

const keyNameSpace = " \t\f\n\r\v\x00"

// ValidatePrincipal rejects names that could escape the key directory or
// collide with write-back siblings.
func ValidatePrincipal(u string) error {
	switch {
	case u == "", strings.HasPrefix(u, "."), strings.ContainsAny(u, "/~"):
		return fmt.Errorf("%w: %s", ErrInvalidPrincipal, u)
	case strings.ContainsAny(u, keyNameSpace):
		return fmt.Errorf("%w: %q, includes whitespace", ErrInvalidPrincipal, u)
	}
	return nil
}

func ValidateKeyName(k string) error {
	if k == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKeyName)
	}
	if strings.ContainsAny(k, keyNameSpace) {
		return fmt.Errorf("%w: %s, includes whitespace", ErrInvalidKeyName, k)
	}
	return nil
}

func ValidateHash(h string) error {
	if !keyhash.ValidEncoding(h) {
		return fmt.Errorf("%w: %q, must be printable ASCII without spaces", ErrInvalidHash, h)
	}
	return nil
}
