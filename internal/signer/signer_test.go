package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	data := []byte("hello world")
	sig := Sign(secret, data)
	require.True(t, Verify(secret, data, sig))
}

func TestWrongDataRejected(t *testing.T) {
	secret := []byte("test-secret")
	sig := Sign(secret, []byte("data"))
	require.False(t, Verify(secret, []byte("data'"), sig))
}

func TestMalformedSignatureRejected(t *testing.T) {
	require.False(t, Verify([]byte("secret"), []byte("data"), "not-base64!"))
}

func TestArbitraryKeyLengths(t *testing.T) {
	for _, secret := range [][]byte{{}, []byte("a"), make([]byte, 1), make([]byte, 512)} {
		sig := Sign(secret, []byte("msg"))
		require.True(t, Verify(secret, []byte("msg"), sig))
	}
}
