package keyhash

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported hash scheme")
	ErrMalformedParams   = errors.New("malformed hash parameters")
)

// DefaultParams is used when neither the command line nor the configuration
// names hash parameters.
const DefaultParams = "$argon2id$v=19$m=65536,t=3,p=1$*16$*32"

type Scheme string

const (
	SchemeArgon2id Scheme = "argon2id"
	SchemeArgon2i  Scheme = "argon2i"
	SchemeSHA512   Scheme = "6"
	SchemeSHA256   Scheme = "5"
	SchemeMD5      Scheme = "1"
)

const argon2Version = 0x13

var b64 = base64.RawStdEncoding

// Params is a decoded parameter string. Argon2 fields are only meaningful for
// the argon2 schemes; Setting is only meaningful for the crypt schemes.
type Params struct {
	Scheme Scheme

	Memory  uint32
	Time    uint32
	Threads uint8
	Salt    []byte
	KeyLen  uint32
	Digest  []byte

	// Setting is the crypt(3) salt string, e.g. "$6$rounds=5000$abcd".
	// Empty means a random salt is generated.
	Setting string
}

// Erase clears the salt and digest held by p.
func (p *Params) Erase() {
	Erase(p.Salt)
	Erase(p.Digest)
	p.Salt = nil
	p.Digest = nil
}

func (p *Params) isArgon2() bool {
	return p.Scheme == SchemeArgon2id || p.Scheme == SchemeArgon2i
}

// DecodeParams parses a parameter string or a complete encoded hash.
// Random salts requested with "*N" are generated here, so two decodes of the
// same string yield different salts.
func DecodeParams(s string) (*Params, error) {
	if !strings.HasPrefix(s, "$") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
	}
	fields := strings.Split(s[1:], "$")
	switch Scheme(fields[0]) {
	case SchemeArgon2id, SchemeArgon2i:
		return decodeArgon2(Scheme(fields[0]), fields[1:])
	case SchemeSHA512, SchemeSHA256, SchemeMD5:
		return decodeCrypt(Scheme(fields[0]), s, fields[1:])
	default:
		return nil, fmt.Errorf("%w: $%s$", ErrUnsupportedScheme, fields[0])
	}
}

func decodeArgon2(scheme Scheme, fields []string) (*Params, error) {
	// v=19, m=..,t=..,p=.., salt, [digest]
	if len(fields) < 3 || len(fields) > 4 {
		return nil, fmt.Errorf("%w: expected version, costs, salt and optional digest", ErrMalformedParams)
	}
	p := &Params{Scheme: scheme, KeyLen: 32}

	if fields[0] != "v="+strconv.Itoa(argon2Version) {
		return nil, fmt.Errorf("%w: unsupported argon2 version %q", ErrMalformedParams, fields[0])
	}

	seen := map[string]bool{}
	for _, kv := range strings.Split(fields[1], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || seen[k] {
			return nil, fmt.Errorf("%w: bad cost field %q", ErrMalformedParams, kv)
		}
		seen[k] = true
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad cost field %q", ErrMalformedParams, kv)
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, fmt.Errorf("%w: parallelism %d out of range", ErrMalformedParams, n)
			}
			p.Threads = uint8(n)
		default:
			return nil, fmt.Errorf("%w: unknown cost field %q", ErrMalformedParams, k)
		}
	}
	if !seen["m"] || !seen["t"] || !seen["p"] {
		return nil, fmt.Errorf("%w: m, t and p are required", ErrMalformedParams)
	}
	if p.Time < 1 || p.Threads < 1 || p.Memory < 8*uint32(p.Threads) {
		return nil, fmt.Errorf("%w: cost parameters out of range", ErrMalformedParams)
	}

	salt, err := decodeOrGenerate(fields[2])
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedParams, err)
	}
	if len(salt) < 8 {
		Erase(salt)
		return nil, fmt.Errorf("%w: salt shorter than 8 bytes", ErrMalformedParams)
	}
	p.Salt = salt

	if len(fields) == 4 && fields[3] != "" {
		d := fields[3]
		if n, ok := strings.CutPrefix(d, "*"); ok {
			l, err := strconv.ParseUint(n, 10, 32)
			if err != nil || l < 4 {
				p.Erase()
				return nil, fmt.Errorf("%w: bad digest length %q", ErrMalformedParams, d)
			}
			p.KeyLen = uint32(l)
		} else {
			digest, err := b64.DecodeString(d)
			if err != nil || len(digest) < 4 {
				p.Erase()
				return nil, fmt.Errorf("%w: bad digest", ErrMalformedParams)
			}
			p.Digest = digest
			p.KeyLen = uint32(len(digest))
		}
	}
	return p, nil
}

func decodeOrGenerate(field string) ([]byte, error) {
	if n, ok := strings.CutPrefix(field, "*"); ok {
		l, err := strconv.Atoi(n)
		if err != nil || l <= 0 || l > 1024 {
			return nil, fmt.Errorf("bad random length %q", field)
		}
		b := make([]byte, l)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return b64.DecodeString(field)
}

func decodeCrypt(scheme Scheme, s string, fields []string) (*Params, error) {
	p := &Params{Scheme: scheme}
	// "$6$" alone (or "$6") requests a fresh salt.
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == "") {
		return p, nil
	}
	for _, f := range fields {
		if strings.ContainsAny(f, " \t\n\x00") {
			return nil, fmt.Errorf("%w: whitespace in crypt setting", ErrMalformedParams)
		}
	}
	if fields[0] == "" {
		return nil, fmt.Errorf("%w: empty crypt salt", ErrMalformedParams)
	}
	p.Setting = s
	return p, nil
}

// EncodeParams renders p without its digest, in a form DecodeParams accepts.
// The salt is kept, so the result reproduces the same hash for the same key.
func EncodeParams(p *Params) string {
	if !p.isArgon2() {
		if p.Setting == "" {
			return "$" + string(p.Scheme) + "$"
		}
		return p.Setting
	}
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$*%d",
		p.Scheme, argon2Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(p.Salt), p.KeyLen)
}

func encodeArgon2(p *Params, digest []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		p.Scheme, argon2Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(p.Salt), b64.EncodeToString(digest))
}
