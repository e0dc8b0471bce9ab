package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/agentrentorg/libagentrent-go/retry"
	"github.com/agentrentorg/libagentrent-go/signin"
)

const (
	// receiptPollInterval is the sampling interval while waiting for a
	// transaction receipt.
	receiptPollInterval = 2 * time.Second

	// receiptPollCeiling bounds the confirmation wait.
	receiptPollCeiling = 60 * time.Second
)

// RPCService implements Service against a chain node over JSON-RPC.
// Transactions are submitted from Account, a node-managed address;
// signature production is the wallet's concern, outside this client.
type RPCService struct {
	RPC      *RPCClient
	Contract string // rental ledger contract address
	Account  string // transaction sender address

	// Zero values fall back to the package defaults.
	pollInterval time.Duration
	pollCeiling  time.Duration
}

// Compile-time interface check.
var _ Service = (*RPCService)(nil)

// NewRPCService creates a ledger service for the contract at the given
// address.
func NewRPCService(rpcURL, contract, account string) (*RPCService, error) {
	if contract == "" {
		return nil, ErrNotConfigured
	}
	c, err := signin.NormalizeAddress(contract)
	if err != nil {
		return nil, fmt.Errorf("ledger: contract address: %w", err)
	}
	a, err := signin.NormalizeAddress(account)
	if err != nil {
		return nil, fmt.Errorf("ledger: account address: %w", err)
	}
	return &RPCService{RPC: NewRPCClient(rpcURL), Contract: c, Account: a}, nil
}

// txParams is the eth_sendTransaction parameter object.
type txParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value,omitempty"`
}

// callParams is the eth_call parameter object.
type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// RegisterContent implements Service.
func (s *RPCService) RegisterContent(ctx context.Context, cid string, price *big.Int) (string, error) {
	if price == nil {
		price = big.NewInt(0)
	}
	priceWord, err := encodeUint256(price)
	if err != nil {
		return "", err
	}
	data := encodeCallData(sigUploadAgent, cid, priceWord)

	var txHash string
	err = s.RPC.Call(ctx, "eth_sendTransaction", []interface{}{txParams{
		From: s.Account,
		To:   s.Contract,
		Data: "0x" + hex.EncodeToString(data),
	}}, &txHash)
	if err != nil {
		return "", err
	}
	return txHash, nil
}

// Rent implements Service. The client-side price check mirrors the
// contract's own; the contract remains the authority.
func (s *RPCService) Rent(ctx context.Context, cid string, payment *big.Int) (*TxReceipt, error) {
	info, err := s.ContentInfo(ctx, cid)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.Cmp(info.Price) < 0 {
		return nil, fmt.Errorf("%w: need %s, offered %s",
			ErrInsufficientPayment, FormatAmount(info.Price), FormatAmount(payment))
	}

	data := encodeCallData(sigRentAgent, cid)
	var txHash string
	err = s.RPC.Call(ctx, "eth_sendTransaction", []interface{}{txParams{
		From:  s.Account,
		To:    s.Contract,
		Data:  "0x" + hex.EncodeToString(data),
		Value: hexQuantity(payment),
	}}, &txHash)
	if err != nil {
		return nil, err
	}

	receipt, err := s.AwaitReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if !receipt.Status {
		return nil, fmt.Errorf("%w: tx %s", ErrTransactionFailed, txHash)
	}
	return receipt, nil
}

// IsRenter implements Service.
func (s *RPCService) IsRenter(ctx context.Context, cid, addr string) (bool, error) {
	normalized, err := signin.NormalizeAddress(addr)
	if err != nil {
		return false, err
	}
	addrWord, err := encodeAddress(normalized)
	if err != nil {
		return false, err
	}
	data := encodeCallData(sigIsRenter, cid, addrWord)

	var result string
	err = s.RPC.Call(ctx, "eth_call", []interface{}{callParams{
		To:   s.Contract,
		Data: "0x" + hex.EncodeToString(data),
	}, "latest"}, &result)
	if err != nil {
		return false, err
	}

	raw, err := decodeHexBytes(result)
	if err != nil {
		return false, err
	}
	return decodeBool(raw)
}

// ContentInfo implements Service. An all-zero uploader means the contract
// has no entry for cid.
func (s *RPCService) ContentInfo(ctx context.Context, cid string) (*ContentInfo, error) {
	data := encodeCallData(sigAgents, cid)

	var result string
	err := s.RPC.Call(ctx, "eth_call", []interface{}{callParams{
		To:   s.Contract,
		Data: "0x" + hex.EncodeToString(data),
	}, "latest"}, &result)
	if err != nil {
		return nil, err
	}

	raw, err := decodeHexBytes(result)
	if err != nil {
		return nil, err
	}
	uploader, price, err := decodeAddressUint(raw)
	if err != nil {
		return nil, err
	}
	if uploader == "0x0000000000000000000000000000000000000000" {
		return nil, fmt.Errorf("%w: %s", ErrContentNotRegistered, cid)
	}
	return &ContentInfo{Uploader: uploader, Price: price}, nil
}

// rpcReceipt is the eth_getTransactionReceipt result shape.
type rpcReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
}

// AwaitReceipt polls for the mined receipt of txHash until the
// confirmation ceiling elapses.
func (s *RPCService) AwaitReceipt(ctx context.Context, txHash string) (*TxReceipt, error) {
	interval, ceiling := s.pollInterval, s.pollCeiling
	if interval <= 0 {
		interval = receiptPollInterval
	}
	if ceiling <= 0 {
		ceiling = receiptPollCeiling
	}

	var receipt *TxReceipt
	err := retry.Poll(ctx, interval, ceiling, func(ctx context.Context) (bool, error) {
		var raw json.RawMessage
		if err := s.RPC.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash}, &raw); err != nil {
			return false, err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return false, nil // not mined yet
		}
		var r rpcReceipt
		if err := json.Unmarshal(raw, &r); err != nil {
			return false, fmt.Errorf("%w: receipt: %w", ErrInvalidResponse, err)
		}
		block, err := parseHexQuantity(r.BlockNumber)
		if err != nil {
			return false, err
		}
		receipt = &TxReceipt{
			TxHash:      r.TransactionHash,
			Status:      r.Status == "0x1",
			BlockNumber: block,
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrTimeout) {
			return nil, fmt.Errorf("%w: tx %s", ErrReceiptTimeout, txHash)
		}
		return nil, err
	}
	return receipt, nil
}

// parseHexQuantity parses a 0x-prefixed hex quantity.
func parseHexQuantity(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad quantity %q: %w", ErrInvalidResponse, s, err)
	}
	return v, nil
}
