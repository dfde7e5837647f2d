package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileKeyStore persists each agent's secret AES-256-GCM-encrypted under a
// directory, one file per agent id, mirroring the original implementation's
// EncryptedFileKeyStore (crates/agent/src/security/file_keystore.rs). The
// nonce is generated per encryption and stored as a prefix of the
// ciphertext, exactly as the original does.
type FileKeyStore struct {
	dir       string
	masterKey [32]byte
}

// NewFileKeyStore creates dir if absent and returns a KeyStore that
// encrypts under masterKey (must be 32 bytes, AES-256's key size).
func NewFileKeyStore(dir string, masterKey []byte) (*FileKeyStore, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("keystore: master key must be 32 bytes, got %d", len(masterKey))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create dir: %w", err)
	}
	fks := &FileKeyStore{dir: dir}
	copy(fks.masterKey[:], masterKey)
	return fks, nil
}

func (f *FileKeyStore) pathFor(agentID string) string {
	return filepath.Join(f.dir, agentID+".key")
}

func (f *FileKeyStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(f.masterKey[:])
	if err != nil {
		return nil, fmt.Errorf("keystore: new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Store encrypts secret with a fresh random nonce and writes
// <nonce><ciphertext> to the agent's key file.
func (f *FileKeyStore) Store(agentID string, secret []byte) error {
	gcm, err := f.gcm()
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("keystore: generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, secret, nil)
	if err := os.WriteFile(f.pathFor(agentID), sealed, 0o600); err != nil {
		return fmt.Errorf("keystore: write: %w", err)
	}
	return nil
}

// Load reads and decrypts the agent's key file.
func (f *FileKeyStore) Load(agentID string) ([]byte, error) {
	path := f.pathFor(agentID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keystore: read: %w", err)
	}

	gcm, err := f.gcm()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("keystore: %s: ciphertext shorter than nonce", agentID)
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt %s: %w", agentID, err)
	}
	return plaintext, nil
}

// Delete removes the agent's key file, succeeding if it is already absent.
func (f *FileKeyStore) Delete(agentID string) error {
	if err := os.Remove(f.pathFor(agentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keystore: delete: %w", err)
	}
	return nil
}
