// Package custody is the client for the threshold key-custody network: a
// distributed node set that wraps symmetric keys under declarative access
// policies and releases them only after re-evaluating the policy against the
// requester's authenticated address and live chain state.
package custody

import (
	"context"
	"time"

	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/signin"
)

// WrappedKey is the opaque payload returned by the network's wrap
// operation. ExpiryBound must be set at wrap time and echoed back at unwrap
// time; a zero ExpiryBound marks a legacy payload (see RecoverKey).
type WrappedKey struct {
	// Ciphertext is the network-wrapped key material.
	Ciphertext []byte `json:"ciphertext"`

	// ContentHash is SHA256(raw key), the commitment the network binds the
	// wrap to and the client verifies after unwrap.
	ContentHash []byte `json:"contentHash"`

	// ExpiryBound is the wrap-time expiry carried with the payload.
	ExpiryBound time.Time `json:"expiryBound,omitempty"`
}

// WrapRequest asks the network to wrap key material under a policy.
type WrapRequest struct {
	// RequestID correlates the request across nodes and logs.
	RequestID string `json:"requestId"`

	// Key is the raw symmetric key to wrap.
	Key []byte `json:"key"`

	// Policy is the access condition evaluated at unwrap time.
	Policy *policy.Policy `json:"policy"`

	// Auth proves control of the wrapping address. Must be fresh.
	Auth *signin.AuthAssertion `json:"auth"`

	// ExpiryBound is mandatory; the network rejects wrap requests without
	// an explicit bound.
	ExpiryBound time.Time `json:"expiryBound"`
}

// UnwrapRequest asks the network to release a wrapped key.
type UnwrapRequest struct {
	RequestID string `json:"requestId"`

	// Wrapped is the payload returned by a prior wrap.
	Wrapped *WrappedKey `json:"wrapped"`

	// Policy optionally re-supplies the access condition. Nil lets the
	// network use the policy bound at wrap time.
	Policy *policy.Policy `json:"policy,omitempty"`

	// Auth proves the requester's address. Must be fresh.
	Auth *signin.AuthAssertion `json:"auth"`

	// ExpiryBound must echo the bound used at wrap time.
	ExpiryBound time.Time `json:"expiryBound"`
}

// NodeService is the transport boundary to the custody network. HTTPService
// is the production implementation; MockNodeService serves tests.
type NodeService interface {
	// Handshake establishes the network session. Idempotent.
	Handshake(ctx context.Context) error

	// Wrap wraps key material under a policy.
	Wrap(ctx context.Context, req *WrapRequest) (*WrappedKey, error)

	// Unwrap releases wrapped key material after policy evaluation.
	Unwrap(ctx context.Context, req *UnwrapRequest) ([]byte, error)
}
