package signin

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Verify checks that the assertion's signature was produced by the key
// behind the claimed address. The signature is verified over the digest of
// the normalized message, the signing address is derived from the embedded
// public key, and the result is compared case-insensitively against the
// claimed address. Any mismatch is a hard failure.
func Verify(a *AuthAssertion) error {
	if a == nil {
		return ErrNilAssertion
	}

	pubBytes, err := hex.DecodeString(a.PubKey)
	if err != nil {
		return fmt.Errorf("%w: bad pubkey hex: %w", ErrSignatureMismatch, err)
	}
	pub, err := ec.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: bad pubkey: %w", ErrSignatureMismatch, err)
	}

	sigBytes, err := hex.DecodeString(a.Signature)
	if err != nil {
		return fmt.Errorf("%w: bad signature hex: %w", ErrSignatureMismatch, err)
	}
	sig, err := ec.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding: %w", ErrSignatureMismatch, err)
	}

	digest := MessageDigest(NormalizeMessage(a.Message))
	if !sig.Verify(digest, pub) {
		return fmt.Errorf("%w: signature invalid for message", ErrSignatureMismatch)
	}

	// The signature proves control of pub; the address must match it.
	recovered := AddressFromPubKey(pub)
	if !SameAddress(recovered, a.Address) {
		return fmt.Errorf("%w: recovered %s, claimed %s", ErrSignatureMismatch, recovered, a.Address)
	}

	return nil
}
