package policy

import "errors"

var (
	// ErrAddressMismatch indicates a plain equality clause references an
	// address that does not match the authenticated caller. Surfaced before
	// any custody network call so configuration bugs fail fast instead of
	// being rejected silently by the nodes.
	ErrAddressMismatch = errors.New("policy: clause address does not match authenticated address")

	// ErrEmptyPolicy indicates a policy with no clauses.
	ErrEmptyPolicy = errors.New("policy: policy has no clauses")

	// ErrInvalidClause indicates a clause with missing or malformed fields.
	ErrInvalidClause = errors.New("policy: invalid clause")

	// ErrUnknownClauseKind indicates a serialized clause with an
	// unrecognized kind tag.
	ErrUnknownClauseKind = errors.New("policy: unknown clause kind")
)
