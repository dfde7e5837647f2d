package keystore

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func testMasterKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestFileKeyStoreRoundTrip(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir(), testMasterKey())
	require.NoError(t, err)

	require.NoError(t, ks.Store("agent-1", []byte("my-secret")))
	loaded, err := ks.Load("agent-1")
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("my-secret"), loaded))
}

func TestFileKeyStoreLoadMissingReturnsNotFound(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir(), testMasterKey())
	require.NoError(t, err)

	_, err = ks.Load("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileKeyStoreDeleteRemovesSecret(t *testing.T) {
	ks, err := NewFileKeyStore(t.TempDir(), testMasterKey())
	require.NoError(t, err)

	require.NoError(t, ks.Store("agent-1", []byte("secret")))
	require.NoError(t, ks.Delete("agent-1"))
	_, err = ks.Load("agent-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileKeyStoreTamperedDataRejected(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewFileKeyStore(dir, testMasterKey())
	require.NoError(t, err)
	require.NoError(t, ks.Store("agent-1", []byte("secret")))

	path := ks.pathFor("agent-1")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = ks.Load("agent-1")
	require.Error(t, err)
}

func TestNewFileKeyStoreRejectsWrongKeySize(t *testing.T) {
	_, err := NewFileKeyStore(t.TempDir(), []byte("too-short"))
	require.Error(t, err)
}
