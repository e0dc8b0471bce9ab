// Package ledger is the client for the on-chain rental ledger contract: the
// record of content price, uploader, and time-bounded rental grants. The
// contract is the authority on all checks; client-side validation only
// fails doomed calls early.
package ledger

import (
	"context"
	"math/big"
)

// RentalWindow is the contract's fixed rental duration in seconds, counted
// from the rent transaction's block timestamp.
const RentalWindow = 3600

// ContentInfo is the on-chain registration entry for one content id.
type ContentInfo struct {
	// Uploader is the canonical lowercase address that registered the content.
	Uploader string

	// Price is the rental fee in base units.
	Price *big.Int
}

// TxReceipt is the mined result of a submitted transaction.
type TxReceipt struct {
	TxHash      string
	Status      bool // false = reverted
	BlockNumber uint64
}

// Service is the rental ledger boundary. RPCService is the production
// implementation; MockService serves tests.
type Service interface {
	// RegisterContent records cid at the given price, payable to the
	// caller. Returns the transaction hash without waiting for mining.
	RegisterContent(ctx context.Context, cid string, price *big.Int) (string, error)

	// Rent pays for a rental of cid. It fails fast with
	// ErrInsufficientPayment when payment is below the registered price,
	// then submits and waits for the mined receipt. A reverted receipt is
	// returned as ErrTransactionFailed.
	Rent(ctx context.Context, cid string, payment *big.Int) (*TxReceipt, error)

	// IsRenter reports whether addr holds an active rental for cid. Always
	// a live chain read; results are never cached.
	IsRenter(ctx context.Context, cid, addr string) (bool, error)

	// ContentInfo returns the registration entry for cid, or
	// ErrContentNotRegistered.
	ContentInfo(ctx context.Context, cid string) (*ContentInfo, error)
}

// MockService is a test double for Service.
// All function fields must be set before the corresponding method is called.
type MockService struct {
	RegisterContentFn func(ctx context.Context, cid string, price *big.Int) (string, error)
	RentFn            func(ctx context.Context, cid string, payment *big.Int) (*TxReceipt, error)
	IsRenterFn        func(ctx context.Context, cid, addr string) (bool, error)
	ContentInfoFn     func(ctx context.Context, cid string) (*ContentInfo, error)
}

func (m *MockService) RegisterContent(ctx context.Context, cid string, price *big.Int) (string, error) {
	return m.RegisterContentFn(ctx, cid, price)
}

func (m *MockService) Rent(ctx context.Context, cid string, payment *big.Int) (*TxReceipt, error) {
	return m.RentFn(ctx, cid, payment)
}

func (m *MockService) IsRenter(ctx context.Context, cid, addr string) (bool, error) {
	return m.IsRenterFn(ctx, cid, addr)
}

func (m *MockService) ContentInfo(ctx context.Context, cid string) (*ContentInfo, error) {
	return m.ContentInfoFn(ctx, cid)
}
