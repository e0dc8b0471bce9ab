package signin

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/sha3"
)

// messagePrefix is prepended (with the message's decimal byte length) before
// hashing, so a signed sign-in statement can never double as a valid
// transaction or other protocol message.
const messagePrefix = "\x19Wallet Signed Message:\n"

// AuthAssertion proves control of Address over Message at signing time.
// Assertions must be freshly generated per custody operation; the custody
// network validates a recency bound carried in the statement's Issued At.
type AuthAssertion struct {
	// Address is the canonical lowercase wallet address of the signer.
	Address string `json:"address"`

	// Message is the normalized sign-in statement that was signed.
	Message string `json:"message"`

	// Signature is the hex-encoded DER signature over MessageDigest(Message).
	Signature string `json:"signature"`

	// PubKey is the hex-encoded compressed public key of the signer, from
	// which Address is re-derived during verification.
	PubKey string `json:"pubKey"`
}

// Signer produces wallet signatures over sign-in statements. Production
// deployments back this with an external wallet; LocalSigner implements it
// over an in-memory key for library use and tests.
type Signer interface {
	// Address returns the canonical lowercase address of the signing key.
	Address() string

	// SignMessage signs the normalized form of msg and returns a complete
	// auth assertion.
	SignMessage(msg string) (*AuthAssertion, error)
}

// LocalSigner signs with an in-memory secp256k1 private key.
type LocalSigner struct {
	priv *ec.PrivateKey
}

// Compile-time interface check.
var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner creates a LocalSigner from an existing private key.
func NewLocalSigner(priv *ec.PrivateKey) (*LocalSigner, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrSigningFailed)
	}
	return &LocalSigner{priv: priv}, nil
}

// GenerateLocalSigner creates a LocalSigner with a fresh random key.
func GenerateLocalSigner() (*LocalSigner, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return &LocalSigner{priv: priv}, nil
}

// Address returns the canonical lowercase address of the signing key.
func (s *LocalSigner) Address() string {
	return AddressFromPubKey(s.priv.PubKey())
}

// SignMessage signs the normalized message and returns the auth assertion.
func (s *LocalSigner) SignMessage(msg string) (*AuthAssertion, error) {
	normalized := NormalizeMessage(msg)
	digest := MessageDigest(normalized)

	sig, err := s.priv.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	return &AuthAssertion{
		Address:   s.Address(),
		Message:   normalized,
		Signature: hex.EncodeToString(sig.Serialize()),
		PubKey:    hex.EncodeToString(s.priv.PubKey().Compressed()),
	}, nil
}

// MessageDigest computes the 32-byte Keccak-256 digest of the prefixed
// message: keccak256(prefix || decimal-length || message).
func MessageDigest(msg string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(fmt.Sprintf("%s%d%s", messagePrefix, len(msg), msg)))
	return h.Sum(nil)
}
