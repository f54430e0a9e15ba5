package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
	"golang.org/x/crypto/argon2"
)

// FileKeystore keeps its key in a file, standing in for a platform keychain.
//
// Two modes exist. Without a passphrase the key file holds 32 random bytes
// generated on first use. With a passphrase the file holds only a random
// salt and the key is derived with argon2id on demand, so no key material
// ever touches disk.
//
// Provisioning is lazy and idempotent: the first Encrypt creates the file,
// later calls (from any instance pointed at the same path) reuse it.
type FileKeystore struct {
	path       string
	passphrase []byte

	mu  sync.Mutex
	key []byte
}

// keyFile is the on-disk layout. Exactly one of Key or Salt is set.
type keyFile struct {
	Key  []byte `json:"key,omitempty"`
	Salt []byte `json:"salt,omitempty"`
}

// NewFileKeystore returns a keystore whose random key lives at path.
func NewFileKeystore(path string) *FileKeystore {
	return &FileKeystore{path: path}
}

// NewFileKeystoreWithPassphrase returns a keystore whose key is derived from
// passphrase; only the derivation salt is persisted at path.
func NewFileKeystoreWithPassphrase(path string, passphrase []byte) *FileKeystore {
	return &FileKeystore{path: path, passphrase: passphrase}
}

func (k *FileKeystore) Encrypt(plaintext string) (string, string, error) {
	key, err := k.secretKey(true)
	if err != nil {
		return "", "", err
	}
	return seal(key, plaintext)
}

func (k *FileKeystore) Decrypt(ciphertext, iv string) (string, error) {
	key, err := k.secretKey(false)
	if err != nil {
		return "", err
	}
	return open(key, ciphertext, iv)
}

// secretKey returns the store's key, loading it from disk and, when
// provision is true, creating it on first use.
func (k *FileKeystore) secretKey(provision bool) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return k.key, nil
	}

	data, err := os.ReadFile(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		if !provision {
			return nil, common.ErrNoKey
		}
		return k.provisionKey()
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}

	switch {
	case len(k.passphrase) > 0:
		if len(kf.Salt) == 0 {
			return nil, fmt.Errorf("%w: key file carries no salt", common.ErrNoKey)
		}
		k.key = deriveKey(k.passphrase, kf.Salt)
	default:
		if len(kf.Key) != keySize {
			return nil, fmt.Errorf("%w: key file carries no usable key", common.ErrNoKey)
		}
		k.key = kf.Key
	}
	return k.key, nil
}

// provisionKey creates the key file. Called with the mutex held.
func (k *FileKeystore) provisionKey() ([]byte, error) {
	var kf keyFile
	if len(k.passphrase) > 0 {
		kf.Salt = make([]byte, 16)
		if _, err := rand.Read(kf.Salt); err != nil {
			return nil, err
		}
		k.key = deriveKey(k.passphrase, kf.Salt)
	} else {
		kf.Key = make([]byte, keySize)
		if _, err := rand.Read(kf.Key); err != nil {
			return nil, err
		}
		k.key = kf.Key
	}

	data, err := json.Marshal(kf)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(k.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return k.key, nil
}

// deriveKey stretches a passphrase into an AES-256 key with argon2id.
func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}
