// Package store is the client for the content-addressed ciphertext store:
// credentialed uploads through a pinning API and redundant fetches through an
// ordered gateway list. Everything stored and served here is ciphertext; keys
// never travel through this package.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MaxFetchSize is the maximum allowed gateway response body (1 GB).
const MaxFetchSize = 1 << 30

// Client talks to the content store. APIURL/APIKey credential the upload
// side; Gateways serve reads and need no credentials.
type Client struct {
	APIURL   string
	APIKey   string
	Gateways []string     // base URLs, tried in order
	HTTP     *http.Client // nil uses a 30s-timeout default
}

// NewClient creates a store client. Upload is degraded until APIURL and
// APIKey are both set.
func NewClient(apiURL, apiKey string, gateways []string) *Client {
	return &Client{
		APIURL:   apiURL,
		APIKey:   apiKey,
		Gateways: gateways,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// CanUpload reports whether upload credentials are configured.
func (c *Client) CanUpload() bool {
	return c.APIURL != "" && c.APIKey != ""
}

// uploadResponse is the pinning API's success payload.
type uploadResponse struct {
	CID string `json:"cid"`
}

// Upload pins data under the given file name and returns the content id.
// Returns ErrNoCredentials when the client has no API credentials; callers
// treat that as a degraded mode, not a hard failure.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if !c.CanUpload() {
		return "", ErrNoCredentials
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %w", ErrUploadFailed, err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("%w: build form: %w", ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: build form: %w", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrUploadFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrUploadFailed, err)
	}
	if ur.CID == "" {
		return "", fmt.Errorf("%w: empty cid in response", ErrUploadFailed)
	}
	return ur.CID, nil
}

// Fetch retrieves ciphertext for cid, trying gateways in order and falling
// through on any failure. Returns the first successful non-empty body.
func (c *Client) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, ErrInvalidCID
	}
	if len(c.Gateways) == 0 {
		return nil, ErrNoGateways
	}

	for _, gw := range c.Gateways {
		data, err := c.fetchFromGateway(ctx, gw, cid)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Next gateway on any other error.
	}
	return nil, fmt.Errorf("%w: cid %s", ErrNotFound, cid)
}

// fetchFromGateway fetches GET {base}/{cid} from one gateway.
func (c *Client) fetchFromGateway(ctx context.Context, base, cid string) ([]byte, error) {
	url := strings.TrimSuffix(base, "/") + "/" + cid

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("store: gateway %s: %w", base, err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: gateway %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store: gateway %s: HTTP %d", base, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("store: gateway %s: read body: %w", base, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("store: gateway %s: empty response", base)
	}
	return data, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}
