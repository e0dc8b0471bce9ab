// Package filecrypt is the content cipher: symmetric encryption of file
// payloads before they are published to the content-addressed store. Every
// encryption generates a fresh random key and nonce; the key is then wrapped
// by the custody network and never stored in the clear.
package filecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	// KeyLen is the AES-256 key length in bytes.
	KeyLen = 32

	// NonceLen is the length of the AES-GCM nonce in bytes, prepended to
	// every ciphertext blob.
	NonceLen = 12

	// GCMTagLen is the length of the GCM authentication tag in bytes.
	GCMTagLen = 16

	// MinBlobLen is the minimum valid blob length (nonce + tag).
	MinBlobLen = NonceLen + GCMTagLen
)

// GenerateKey returns a fresh random 32-byte symmetric key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("filecrypt: key generation failed: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext under a fresh random key with a fresh random
// nonce and returns (key, blob). Blob layout: nonce(12B) || ciphertext ||
// tag(16B).
func Encrypt(plaintext []byte) (key, blob []byte, err error) {
	key, err = GenerateKey()
	if err != nil {
		return nil, nil, err
	}
	blob, err = EncryptWithKey(plaintext, key)
	if err != nil {
		return nil, nil, err
	}
	return key, blob, nil
}

// EncryptWithKey encrypts plaintext under an existing key with a fresh
// random nonce. Used when appending an access grant for a key that already
// protects published content.
func EncryptWithKey(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("filecrypt: nonce generation failed: %w", err)
	}

	// Seal appends ciphertext||tag to the nonce: nonce || ciphertext || tag.
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt splits the nonce from blob at the fixed nonce length and decrypts
// with key. A failed authentication tag surfaces as ErrDecryptionFailed.
func Decrypt(blob, key []byte) ([]byte, error) {
	if len(blob) < MinBlobLen {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := blob[:NonceLen]
	encrypted := blob[NonceLen:]

	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// newGCM builds an AES-GCM AEAD for the given key.
func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen && len(key) != 24 && len(key) != 16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: GCM creation failed: %w", ErrInvalidKey, err)
	}
	return gcm, nil
}
