package keystore

import (
	"crypto/rand"
	"sync"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
)

// MemoryKeystore holds its key in memory only. Intended for tests and for
// hosts that manage key persistence themselves.
type MemoryKeystore struct {
	mu  sync.Mutex
	key []byte
}

func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{}
}

func (k *MemoryKeystore) Encrypt(plaintext string) (string, string, error) {
	k.mu.Lock()
	if k.key == nil {
		key := make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			k.mu.Unlock()
			return "", "", err
		}
		k.key = key
	}
	key := k.key
	k.mu.Unlock()

	return seal(key, plaintext)
}

func (k *MemoryKeystore) Decrypt(ciphertext, iv string) (string, error) {
	k.mu.Lock()
	key := k.key
	k.mu.Unlock()

	if key == nil {
		return "", common.ErrNoKey
	}
	return open(key, ciphertext, iv)
}
