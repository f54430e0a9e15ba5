// Package keystore implements the secret store protecting the session
// credential at rest. A 256-bit AES-GCM key is provisioned lazily on first
// use; ciphertext and IV are returned base64-encoded, ready for key-value
// storage. Decryption failures (missing key, malformed IV, tag mismatch)
// are plain errors; callers decide whether they mean "never logged in" or
// "corrupted state".
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const keySize = 32 // AES-256

// Keystore encrypts and decrypts small strings under a process-wide key.
type Keystore interface {
	// Encrypt encrypts plaintext under the store's key, provisioning the
	// key on first use. Ciphertext and IV are base64-encoded separately.
	Encrypt(plaintext string) (ciphertext, iv string, err error)

	// Decrypt reverses Encrypt. It never provisions a key: decrypting
	// before any Encrypt fails with common.ErrNoKey.
	Decrypt(ciphertext, iv string) (string, error)
}

// seal encrypts plaintext with AES-GCM under key, generating a fresh nonce.
func seal(key []byte, plaintext string) (ciphertext, iv string, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// open decrypts a base64 ciphertext/IV pair with AES-GCM under key.
func open(key []byte, ciphertext, iv string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("malformed iv: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return "", fmt.Errorf("malformed iv: got %d bytes, want %d", len(nonce), aesgcm.NonceSize())
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
