// Package signer implements the HMAC-SHA256 batch signature scheme (§4.3):
// sign on send, verify on receive, over the canonical bytes of a Batch.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Sign returns the base64-encoded HMAC-SHA256 of data under secret. HMAC
// accepts a key of any length, so callers don't need to pad or truncate
// secrets before signing.
func Sign(secret, data []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sigB64 is a valid HMAC-SHA256 signature of data
// under secret, comparing in constant time. A malformed base64 signature is
// treated as a verification failure, not an error.
func Verify(secret, data []byte, sigB64 string) bool {
	want, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	got := mac.Sum(nil)
	return subtle.ConstantTimeCompare(want, got) == 1
}
