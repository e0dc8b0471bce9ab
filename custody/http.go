package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxNodeResponseSize caps node response bodies (1 MB); wrapped keys are
// small and anything larger indicates a misbehaving endpoint.
const MaxNodeResponseSize = 1 << 20

// HTTPService talks to custody node gateways over HTTP. Requests are tried
// against the configured endpoints in order with fallthrough on transport
// failure; a structured node rejection stops the fallthrough, since every
// node evaluates the same policy and would reject identically.
type HTTPService struct {
	Nodes   []string     // node gateway base URLs, in priority order
	Network string       // custody network identifier (e.g. "cayenne")
	Client  *http.Client // nil uses a 30s-timeout default
}

// Compile-time interface check.
var _ NodeService = (*HTTPService)(nil)

// NewHTTPService creates an HTTPService for the given network and node list.
func NewHTTPService(network string, nodes []string) *HTTPService {
	return &HTTPService{
		Nodes:   nodes,
		Network: network,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Handshake verifies at least one node is reachable for the network.
func (s *HTTPService) Handshake(ctx context.Context) error {
	var out struct {
		Network string `json:"network"`
	}
	if err := s.do(ctx, "/v1/handshake", map[string]string{"network": s.Network}, &out); err != nil {
		return err
	}
	if out.Network != s.Network {
		return fmt.Errorf("custody: handshake network mismatch: want %q, got %q", s.Network, out.Network)
	}
	return nil
}

// Wrap implements NodeService.
func (s *HTTPService) Wrap(ctx context.Context, req *WrapRequest) (*WrappedKey, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: wrap request", ErrNilParam)
	}
	var wrapped WrappedKey
	if err := s.do(ctx, "/v1/wrap", req, &wrapped); err != nil {
		return nil, err
	}
	return &wrapped, nil
}

// Unwrap implements NodeService.
func (s *HTTPService) Unwrap(ctx context.Context, req *UnwrapRequest) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: unwrap request", ErrNilParam)
	}
	var out struct {
		Key []byte `json:"key"`
	}
	if err := s.do(ctx, "/v1/unwrap", req, &out); err != nil {
		return nil, err
	}
	return out.Key, nil
}

// do posts a JSON body to path on each node in order. Transport failures
// fall through to the next node; a NodeError rejection is returned
// immediately.
func (s *HTTPService) do(ctx context.Context, path string, body, result interface{}) error {
	if len(s.Nodes) == 0 {
		return ErrNoNodes
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("custody: marshal request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var lastErr error
	for _, node := range s.Nodes {
		err := s.doNode(ctx, client, node+path, payload, result)
		if err == nil {
			return nil
		}
		// A structured rejection is authoritative for the whole network.
		var ne *NodeError
		if errors.As(err, &ne) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %w", ErrAllNodesFailed, lastErr)
}

// doNode posts to a single node endpoint.
func (s *HTTPService) doNode(ctx context.Context, client *http.Client, url string, payload []byte, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("custody: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("custody: node %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxNodeResponseSize))
	if err != nil {
		return fmt.Errorf("custody: node %s: read body: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Nodes return {"error": {"code", "message"}} for rejections.
		var envelope struct {
			Error *NodeError `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &envelope); jsonErr == nil && envelope.Error != nil && envelope.Error.Code != "" {
			return envelope.Error
		}
		return fmt.Errorf("custody: node %s: HTTP %d: %s", url, resp.StatusCode, truncate(data, 256))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("custody: node %s: decode response: %w", url, err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
