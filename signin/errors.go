package signin

import "errors"

var (
	// ErrSignatureMismatch indicates the signature does not verify against
	// the claimed address. Fatal; never retried.
	ErrSignatureMismatch = errors.New("signin: signature does not recover to claimed address")

	// ErrInvalidAddress indicates the address is not 0x-prefixed 20-byte hex.
	ErrInvalidAddress = errors.New("signin: invalid address")

	// ErrInvalidStatement indicates the sign-in statement does not follow
	// the canonical line-oriented template.
	ErrInvalidStatement = errors.New("signin: malformed sign-in statement")

	// ErrEmptyDomain indicates no domain was provided for the statement.
	ErrEmptyDomain = errors.New("signin: domain must not be empty")

	// ErrNilAssertion indicates a nil auth assertion was provided.
	ErrNilAssertion = errors.New("signin: auth assertion is nil")

	// ErrSigningFailed indicates the signer could not produce a signature.
	ErrSigningFailed = errors.New("signin: signing failed")
)
