package custody

import (
	"context"
	"sync"
	"time"
)

// The custody network connection is a single owned process-wide resource:
// the handshake is expensive and node sessions are shared, so Connect
// memoizes the first successful client and returns it to all later callers.
var (
	connMu sync.Mutex
	conn   *Client
)

// ConnectConfig configures the shared custody connection.
type ConnectConfig struct {
	// Service is the transport to the node network.
	Service NodeService

	// ExpiryWindow overrides DefaultExpiryBound when positive.
	ExpiryWindow time.Duration
}

// Connect returns the process-wide custody client, establishing it on first
// use. Subsequent calls are idempotent and return the memoized client; the
// config of later calls is ignored once a connection exists. A failed
// handshake leaves no memoized state, so the next call retries.
func Connect(ctx context.Context, cfg ConnectConfig) (*Client, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if conn != nil {
		return conn, nil
	}

	c, err := NewClient(cfg.Service, cfg.ExpiryWindow)
	if err != nil {
		return nil, err
	}
	if err := cfg.Service.Handshake(ctx); err != nil {
		return nil, err
	}

	conn = c
	return conn, nil
}

// Connected reports whether the process-wide connection is established.
func Connected() bool {
	connMu.Lock()
	defer connMu.Unlock()
	return conn != nil
}

// resetConnection clears the memoized connection. Test hook.
func resetConnection() {
	connMu.Lock()
	defer connMu.Unlock()
	conn = nil
}
