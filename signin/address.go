package signin

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// AddressHexLen is the hex length of a wallet address without the 0x prefix
// (20 bytes).
const AddressHexLen = 40

// AddressFromPubKey derives the canonical lowercase wallet address for a
// public key: "0x" + hex(HASH160(compressed pubkey)).
func AddressFromPubKey(pub *ec.PublicKey) string {
	return "0x" + hex.EncodeToString(bsvhash.Hash160(pub.Compressed()))
}

// NormalizeAddress lowercases addr and validates it is 0x-prefixed 20-byte
// hex. The custody network compares policy values and authenticated
// addresses as opaque strings, so every address must pass through here
// before being embedded in a policy or statement.
func NormalizeAddress(addr string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(addr))
	if !strings.HasPrefix(a, "0x") {
		return "", fmt.Errorf("%w: missing 0x prefix: %q", ErrInvalidAddress, addr)
	}
	body := a[2:]
	if len(body) != AddressHexLen {
		return "", fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidAddress, AddressHexLen, len(body))
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return a, nil
}

// SameAddress reports whether two addresses are equal after normalization.
// Comparison is case-insensitive.
func SameAddress(a, b string) bool {
	na, errA := NormalizeAddress(a)
	nb, errB := NormalizeAddress(b)
	if errA != nil || errB != nil {
		return false
	}
	return na == nb
}
