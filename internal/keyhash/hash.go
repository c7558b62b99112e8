package keyhash

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/argon2"
)

var ErrNoDigest = errors.New("encoded hash has no digest")

// Hash computes the encoded hash of key under p.
func Hash(key []byte, p *Params) (string, error) {
	if p.isArgon2() {
		digest := argon2Digest(key, p)
		defer Erase(digest)
		return encodeArgon2(p, digest), nil
	}
	c, err := crypterFor(p.Scheme)
	if err != nil {
		return "", err
	}
	var setting []byte
	if p.Setting != "" {
		setting = []byte(p.Setting)
	}
	out, err := c.Generate(key, setting)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	return out, nil
}

// HashString decodes params and hashes key with them. An empty params string
// selects DefaultParams.
func HashString(key []byte, params string) (string, error) {
	if params == "" {
		params = DefaultParams
	}
	p, err := DecodeParams(params)
	if err != nil {
		return "", err
	}
	defer p.Erase()
	return Hash(key, p)
}

// Verify reports whether key hashes to encoded, using the parameters carried
// by encoded. The comparison does not stop at the first differing byte.
// A non-nil error means encoded itself could not be used.
func Verify(key []byte, encoded string) (bool, error) {
	p, err := DecodeParams(encoded)
	if err != nil {
		return false, err
	}
	defer p.Erase()

	if p.isArgon2() {
		if p.Digest == nil {
			return false, ErrNoDigest
		}
		got := argon2Digest(key, p)
		defer Erase(got)
		return subtle.ConstantTimeCompare(got, p.Digest) == 1, nil
	}

	setting, ok := cryptSetting(encoded)
	if !ok {
		return false, ErrNoDigest
	}
	c, err := crypterFor(p.Scheme)
	if err != nil {
		return false, err
	}
	got, err := c.Generate(key, []byte(setting))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(encoded)) == 1, nil
}

// cryptSetting splits the digest off an encoded crypt hash and returns what
// is left. ok is false when encoded carries no digest.
func cryptSetting(encoded string) (setting string, ok bool) {
	// "$id$[rounds=N$]salt$digest"
	fields := strings.Split(encoded, "$")
	if len(fields) < 3 || fields[0] != "" {
		return "", false
	}
	fields = fields[2:]
	if strings.HasPrefix(fields[0], "rounds=") {
		fields = fields[1:]
	}
	if len(fields) != 2 || fields[1] == "" {
		return "", false
	}
	return encoded[:strings.LastIndexByte(encoded, '$')], true
}

// ValidEncoding reports whether s can be stored as the hash field of a record:
// non-empty printable ASCII without SP.
func ValidEncoding(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// Erase overwrites b with zeros.
func Erase(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

func argon2Digest(key []byte, p *Params) []byte {
	if p.Scheme == SchemeArgon2i {
		return argon2.Key(key, p.Salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	}
	return argon2.IDKey(key, p.Salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func crypterFor(s Scheme) (crypt.Crypter, error) {
	switch s {
	case SchemeSHA512:
		return sha512_crypt.New(), nil
	case SchemeSHA256:
		return sha256_crypt.New(), nil
	case SchemeMD5:
		return md5_crypt.New(), nil
	}
	return nil, fmt.Errorf("%w: $%s$", ErrUnsupportedScheme, s)
}
