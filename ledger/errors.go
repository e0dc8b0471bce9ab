package ledger

import "errors"

var (
	// ErrInsufficientPayment indicates the offered payment is below the
	// registered price. The contract enforces this too; the client-side
	// check only avoids burning gas on a doomed transaction.
	ErrInsufficientPayment = errors.New("ledger: payment below rental price")

	// ErrTransactionFailed indicates a mined transaction with failure
	// status. Fatal to the rent attempt; never silently ignored.
	ErrTransactionFailed = errors.New("ledger: transaction reverted")

	// ErrReceiptTimeout indicates the transaction was not mined within the
	// confirmation window.
	ErrReceiptTimeout = errors.New("ledger: transaction confirmation timed out")

	// ErrContentNotRegistered indicates the contract has no entry for the
	// content id.
	ErrContentNotRegistered = errors.New("ledger: content not registered")

	// ErrNotConfigured indicates no ledger contract is configured; rental
	// flows are unavailable (degraded mode).
	ErrNotConfigured = errors.New("ledger: rental contract not configured")

	// ErrConnectionFailed indicates the RPC endpoint could not be reached.
	ErrConnectionFailed = errors.New("ledger: connection failed")

	// ErrInvalidResponse indicates a malformed or unexpected RPC response.
	ErrInvalidResponse = errors.New("ledger: invalid response")

	// ErrInvalidAmount indicates an unparseable decimal amount string.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
)
