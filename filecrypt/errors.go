package filecrypt

import "errors"

var (
	// ErrInvalidCiphertext indicates the blob is too short or malformed.
	// Minimum length: 12 (nonce) + 16 (GCM tag) = 28 bytes.
	ErrInvalidCiphertext = errors.New("filecrypt: invalid ciphertext")

	// ErrDecryptionFailed indicates AES-GCM authentication failed: the key
	// is wrong or the blob is corrupted. Never surfaced as corrupted output.
	ErrDecryptionFailed = errors.New("filecrypt: decryption failed (wrong key or corrupted ciphertext)")

	// ErrInvalidKey indicates key material of unusable length or encoding.
	ErrInvalidKey = errors.New("filecrypt: invalid key material")
)
