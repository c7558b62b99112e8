package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/key2root/internal/keyhash"
	"github.com/hnrobert/key2root/internal/keystore"
)

const testParams = "$argon2id$v=19$m=64,t=1,p=1$*16$*32"

func hashOf(t *testing.T, key string) string {
	t.Helper()
	h, err := keyhash.HashString([]byte(key), testParams)
	require.NoError(t, err)
	return h
}

func newTestAuth(t *testing.T) (*Authenticator, *keystore.Store) {
	t.Helper()
	s := keystore.New(filepath.Join(t.TempDir(), "key2root"))
	s.Warn = func(string, ...interface{}) {}
	return New(s), s
}

func TestAuthenticateByName(t *testing.T) {
	a, s := newTestAuth(t)
	require.NoError(t, s.Add("alice", keystore.Record{Name: "k1", Hash: hashOf(t, "hunter2")}, false))

	m, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k1", []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, Match{Principal: "alice", KeyName: "k1"}, m)

	_, err = a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k1", []byte("hunter3"))
	assert.ErrorIs(t, err, ErrKeyMismatch)

	_, err = a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k2", []byte("hunter2"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestAuthenticateUIDFileFirst(t *testing.T) {
	a, s := newTestAuth(t)
	require.NoError(t, s.Add("1000", keystore.Record{Name: "k", Hash: hashOf(t, "same")}, false))
	require.NoError(t, s.Add("alice", keystore.Record{Name: "k", Hash: hashOf(t, "same")}, false))

	m, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "", []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, "1000", m.Principal)
}

func TestAuthenticateFallsBackToNameFile(t *testing.T) {
	a, s := newTestAuth(t)
	require.NoError(t, s.Add("1000", keystore.Record{Name: "k", Hash: hashOf(t, "other")}, false))
	require.NoError(t, s.Add("alice", keystore.Record{Name: "k", Hash: hashOf(t, "mine")}, false))

	m, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k", []byte("mine"))
	require.NoError(t, err)
	assert.Equal(t, "alice", m.Principal)
}

func TestAuthenticateAnyRecord(t *testing.T) {
	a, s := newTestAuth(t)
	require.NoError(t, s.Add("alice", keystore.Record{Name: "a", Hash: hashOf(t, "one")}, false))
	require.NoError(t, s.Add("alice", keystore.Record{Name: "b", Hash: hashOf(t, "two")}, false))

	m, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "b", m.KeyName)

	_, err = a.Authenticate(Caller{UID: 1000, Name: "alice"}, "", []byte("three"))
	assert.ErrorIs(t, err, ErrNoKeyVerified)
}

func TestAuthenticateNoFiles(t *testing.T) {
	a, _ := newTestAuth(t)
	_, err := a.Authenticate(Caller{UID: 1000}, "", []byte("x"))
	assert.ErrorIs(t, err, ErrNoKeyVerified)
	_, err = a.Authenticate(Caller{UID: 1000}, "k", []byte("x"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestAuthenticateSkipsCorruptRecords(t *testing.T) {
	a, s := newTestAuth(t)
	good := hashOf(t, "pw")
	content := "k\x00 " + good + "\n" + // NUL
		"k\n" + // no SP
		"k not-a-hash\n" + // undecodable hash
		"k " + good + "\n" +
		"k " + good // truncated
	require.NoError(t, os.MkdirAll(s.Dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "alice"), []byte(content), 0600))

	var tried []string
	a.Verify = func(key []byte, encoded string) (bool, error) {
		tried = append(tried, encoded)
		return keyhash.Verify(key, encoded)
	}
	m, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice", m.Principal)
	assert.Equal(t, []string{"not-a-hash", good}, tried)
}

func TestAuthenticateTruncatedNeverMatches(t *testing.T) {
	a, s := newTestAuth(t)
	require.NoError(t, os.MkdirAll(s.Dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "alice"), []byte("k "+hashOf(t, "pw")), 0600))

	_, err := a.Authenticate(Caller{UID: 1000, Name: "alice"}, "k", []byte("pw"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestCallerPrincipals(t *testing.T) {
	assert.Equal(t, []string{"0", "root"}, Caller{UID: 0, Name: "root"}.Principals())
	assert.Equal(t, []string{"1234"}, Caller{UID: 1234}.Principals())
}

func TestHumanAuthError(t *testing.T) {
	assert.Equal(t, "", HumanAuthError(nil))
	assert.Equal(t, "key mismatch", HumanAuthError(ErrKeyMismatch))
}
