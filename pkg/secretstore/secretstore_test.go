package secretstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key, err := ParseKey(strings.Repeat("ab", 32))
	require.NoError(t, err)

	s, err := Open(OpenOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)

	_, _, found, err := s.Credential("paper")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.PutCredential("paper", "pub", "priv"))
	require.NoError(t, s.Close())

	s, err = Open(OpenOptions{Path: dir, EncryptionKey: key, ReadOnly: true})
	require.NoError(t, err)
	defer s.Close()

	k, sec, found, err := s.Credential("PAPER")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pub", k)
	assert.Equal(t, "priv", sec)
}

func TestGetStringDistinguishesEmptyFromMissing(t *testing.T) {
	s, err := Open(OpenOptions{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetString("lemon/paper/key", ""))

	v, found, err := s.GetString("lemon/paper/key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, v)

	_, found, err = s.GetString("lemon/money/key")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = s.GetString("  ")
	assert.Error(t, err)
}

func TestDeleteCredential(t *testing.T) {
	s, err := Open(OpenOptions{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutCredential("money", "k", "s"))
	require.NoError(t, s.DeleteCredential("money"))

	_, _, found, err := s.Credential("money")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestParseKey(t *testing.T) {
	b, err := ParseKey("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseKey("0x" + strings.Repeat("01", 32))
	require.NoError(t, err)
	assert.Len(t, b, 32)

	b, err = ParseKey("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	require.NoError(t, err)
	assert.Len(t, b, 32)

	_, err = ParseKey("abcd")
	assert.Error(t, err)

	_, err = ParseKey("not a key!")
	assert.Error(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)
}
