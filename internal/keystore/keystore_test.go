package keystore

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeystore_RoundTrip(t *testing.T) {
	ks := NewFileKeystore(filepath.Join(t.TempDir(), "test.key"))

	for _, plaintext := range []string{"", "sess=abc", "日本語もOK", "_legacy_normandy_session=x; log_session_id=y"} {
		ciphertext, iv, err := ks.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := ks.Decrypt(ciphertext, iv)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestFileKeystore_ProvisioningIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.key")

	ks1 := NewFileKeystore(path)
	ciphertext, iv, err := ks1.Encrypt("sess=abc")
	require.NoError(t, err)

	// A second instance pointed at the same path must load the same key.
	ks2 := NewFileKeystore(path)
	got, err := ks2.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, "sess=abc", got)
}

func TestFileKeystore_DecryptWithoutKey(t *testing.T) {
	ks := NewFileKeystore(filepath.Join(t.TempDir(), "missing.key"))

	_, err := ks.Decrypt("Y2lwaGVydGV4dA==", "aXZpdml2aXZpdml2")
	require.ErrorIs(t, err, common.ErrNoKey)
}

func TestFileKeystore_TamperDetection(t *testing.T) {
	ks := NewFileKeystore(filepath.Join(t.TempDir(), "test.key"))

	ciphertext, iv, err := ks.Encrypt("sess=abc")
	require.NoError(t, err)

	t.Run("mutated ciphertext", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(ciphertext)
		require.NoError(t, err)
		raw[0] ^= 0xff
		_, err = ks.Decrypt(base64.StdEncoding.EncodeToString(raw), iv)
		assert.Error(t, err)
	})

	t.Run("mutated iv", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(iv)
		require.NoError(t, err)
		raw[0] ^= 0xff
		_, err = ks.Decrypt(ciphertext, base64.StdEncoding.EncodeToString(raw))
		assert.Error(t, err)
	})

	t.Run("malformed base64", func(t *testing.T) {
		_, err := ks.Decrypt("not base64!!!", iv)
		assert.Error(t, err)
		_, err = ks.Decrypt(ciphertext, "not base64!!!")
		assert.Error(t, err)
	})

	t.Run("truncated iv", func(t *testing.T) {
		_, err := ks.Decrypt(ciphertext, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}))
		assert.Error(t, err)
	})
}

func TestFileKeystore_Passphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.key")

	ks1 := NewFileKeystoreWithPassphrase(path, []byte("hunter2"))
	ciphertext, iv, err := ks1.Encrypt("sess=abc")
	require.NoError(t, err)

	// Same passphrase, fresh instance: key is re-derived from the salt.
	ks2 := NewFileKeystoreWithPassphrase(path, []byte("hunter2"))
	got, err := ks2.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, "sess=abc", got)

	// Wrong passphrase derives a different key; the GCM tag must not verify.
	ks3 := NewFileKeystoreWithPassphrase(path, []byte("wrong"))
	_, err = ks3.Decrypt(ciphertext, iv)
	assert.Error(t, err)
}

func TestMemoryKeystore(t *testing.T) {
	ks := NewMemoryKeystore()

	_, err := ks.Decrypt("Y2lwaGVydGV4dA==", "aXZpdml2aXZpdml2")
	require.ErrorIs(t, err, common.ErrNoKey)

	ciphertext, iv, err := ks.Encrypt("sess=abc")
	require.NoError(t, err)

	got, err := ks.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, "sess=abc", got)
}
