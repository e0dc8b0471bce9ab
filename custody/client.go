package custody

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/retry"
	"github.com/agentrentorg/libagentrent-go/signin"
)

const (
	// DefaultExpiryBound is applied when the caller does not choose one.
	// The network rejects wrap requests lacking an explicit bound, so the
	// client always sets it.
	DefaultExpiryBound = 24 * time.Hour

	// DefaultPersistAttempts bounds the wrap retry loop.
	DefaultPersistAttempts = 3

	// persistBackoffStart is the first retry delay; backoff grows linearly.
	persistBackoffStart = time.Second
)

// AuthFunc produces a fresh auth assertion. Assertions are never cached
// across custody operations: the network validates a recency bound, so each
// wrap attempt and each unwrap gets its own.
type AuthFunc func(ctx context.Context) (*signin.AuthAssertion, error)

// Client performs key custody operations against a NodeService. It owns
// wrap retries and auth-session freshness; bounded post-transaction polling
// belongs to the orchestrator, not here.
type Client struct {
	svc          NodeService
	expiryWindow time.Duration
}

// NewClient creates a custody client over svc. expiryWindow <= 0 uses
// DefaultExpiryBound.
func NewClient(svc NodeService, expiryWindow time.Duration) (*Client, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: node service", ErrNilParam)
	}
	if expiryWindow <= 0 {
		expiryWindow = DefaultExpiryBound
	}
	return &Client{svc: svc, expiryWindow: expiryWindow}, nil
}

// PersistKey wraps rawKey under pol, retrying with linearly increasing
// backoff up to attempts times. Every attempt carries a fresh auth
// assertion and an explicit expiry bound. On exhaustion the last error is
// wrapped in ErrPersistFailed; the caller decides whether to record a
// degraded "key not available" marker.
func (c *Client) PersistKey(ctx context.Context, rawKey []byte, pol *policy.Policy, auth AuthFunc, attempts int) (*WrappedKey, error) {
	if len(rawKey) == 0 {
		return nil, fmt.Errorf("%w: raw key", ErrNilParam)
	}
	if pol == nil {
		return nil, fmt.Errorf("%w: policy", ErrNilParam)
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: auth func", ErrNilParam)
	}
	if attempts <= 0 {
		attempts = DefaultPersistAttempts
	}

	var wrapped *WrappedKey
	err := retry.Do(ctx, attempts, retry.Linear(persistBackoffStart), func(ctx context.Context) error {
		assertion, err := auth(ctx)
		if err != nil {
			return fmt.Errorf("custody: auth: %w", err)
		}

		w, err := c.svc.Wrap(ctx, &WrapRequest{
			RequestID:   uuid.NewString(),
			Key:         rawKey,
			Policy:      pol,
			Auth:        assertion,
			ExpiryBound: time.Now().UTC().Add(c.expiryWindow),
		})
		if err != nil {
			return classify(err)
		}
		wrapped = w
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	// The network echoes the content hash commitment; fill it in when a
	// node omits it so stored entries always carry the check value.
	if len(wrapped.ContentHash) == 0 {
		sum := sha256.Sum256(rawKey)
		wrapped.ContentHash = sum[:]
	}
	return wrapped, nil
}

// RecoverKey asks the network to unwrap a key. The expiry bound used at
// wrap time is echoed back; legacy payloads that stored none fall back to a
// freshly computed default so old wraps stay recoverable.
//
// RecoverKey does not retry: the orchestrator owns the bounded poll loop
// that tolerates chain-observation lag after a rental transaction.
func (c *Client) RecoverKey(ctx context.Context, wrapped *WrappedKey, pol *policy.Policy, auth AuthFunc) ([]byte, error) {
	if wrapped == nil {
		return nil, fmt.Errorf("%w: wrapped key", ErrNilParam)
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: auth func", ErrNilParam)
	}

	assertion, err := auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("custody: auth: %w", err)
	}

	// Fail fast on a policy that can never authorize this caller, instead
	// of letting the network reject silently later.
	if pol != nil {
		if err := pol.Authorizes(assertion.Address); err != nil {
			return nil, err
		}
	}

	expiry := wrapped.ExpiryBound
	if expiry.IsZero() {
		// Backward compatibility with payloads wrapped before the bound
		// was stored client-side.
		expiry = time.Now().UTC().Add(c.expiryWindow)
	}

	key, err := c.svc.Unwrap(ctx, &UnwrapRequest{
		RequestID:   uuid.NewString(),
		Wrapped:     wrapped,
		Policy:      pol,
		Auth:        assertion,
		ExpiryBound: expiry,
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(wrapped.ContentHash) > 0 {
		sum := sha256.Sum256(key)
		if !bytes.Equal(sum[:], wrapped.ContentHash) {
			return nil, ErrContentHashMismatch
		}
	}
	return key, nil
}
