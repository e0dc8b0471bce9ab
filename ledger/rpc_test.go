package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCClientCall(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "2.0", req.JSONRPC)
			assert.Equal(t, "eth_blockNumber", req.Method)
			assert.Empty(t, req.Params)

			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": "0x10"}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer srv.Close()

		var result string
		err := NewRPCClient(srv.URL).Call(context.Background(), "eth_blockNumber", nil, &result)
		require.NoError(t, err)
		assert.Equal(t, "0x10", result)
	})

	t.Run("server error is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			resp := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32000, "message": "execution reverted"},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer srv.Close()

		err := NewRPCClient(srv.URL).Call(context.Background(), "eth_call", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution reverted")
	})

	t.Run("id mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := map[string]interface{}{"jsonrpc": "2.0", "id": 9999, "result": "0x1"}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer srv.Close()

		err := NewRPCClient(srv.URL).Call(context.Background(), "eth_chainId", nil, nil)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		err := NewRPCClient("http://127.0.0.1:1").Call(context.Background(), "eth_chainId", nil, nil)
		assert.ErrorIs(t, err, ErrConnectionFailed)
	})

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		err := NewRPCClient(srv.URL).Call(context.Background(), "eth_chainId", nil, nil)
		assert.ErrorIs(t, err, ErrConnectionFailed)
	})
}
