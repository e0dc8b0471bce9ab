package filecrypt

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
)

// hexKeyPattern matches a 64-character hex string (a 32-byte key).
var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// ImportKey normalizes externally supplied key material into raw bytes.
// Three encodings are tolerated, selected in order of specificity:
//
//  1. hex: exactly 64 hex characters
//  2. base64 (std or raw-std): decodes to a valid AES key length
//  3. raw bytes: input already a valid AES key length
//
// Hex is preferred over the more permissive encodings so a valid hex key is
// never misread as arbitrary bytes. Input that matches none of the three
// returns ErrInvalidKey.
func ImportKey(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidKey)
	}

	if hexKeyPattern.Match(input) {
		key, err := hex.DecodeString(string(input))
		if err == nil {
			return key, nil
		}
	}

	if decoded, err := decodeBase64(string(input)); err == nil && validKeyLen(len(decoded)) {
		return decoded, nil
	}

	if validKeyLen(len(input)) {
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil
	}

	return nil, fmt.Errorf("%w: not hex, base64, or raw AES key bytes (%d bytes)",
		ErrInvalidKey, len(input))
}

// decodeBase64 tries standard then raw-standard (unpadded) base64.
func decodeBase64(s string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// validKeyLen reports whether n is an acceptable AES key length.
func validKeyLen(n int) bool {
	return n == 16 || n == 24 || n == 32
}
