package rental

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentrentorg/libagentrent-go/custody"
	"github.com/agentrentorg/libagentrent-go/filecrypt"
	"github.com/agentrentorg/libagentrent-go/ledger"
	"github.com/agentrentorg/libagentrent-go/records"
	"github.com/agentrentorg/libagentrent-go/retry"
	"github.com/agentrentorg/libagentrent-go/signin"
)

// RentResult is a completed rental: decrypted plaintext plus how access was
// obtained.
type RentResult struct {
	Plaintext []byte
	Record    *records.ContentRecord

	// Paid is false when access came without a payment: owner access, an
	// already-active rental, or a share grant.
	Paid bool

	// TxHash is the rent transaction, set only when Paid.
	TxHash string
}

// Rent obtains access to a record's content for the configured signer:
// checks ownership and active rentals, pays through the ledger when needed,
// recovers the key from custody, fetches the ciphertext, and decrypts.
//
// A legacy record (key never persisted) fails immediately with
// ErrLegacyRecordBlocked, before any ledger interaction, so the renter never
// pays for an unrecoverable key.
func (s *Service) Rent(ctx context.Context, recordID string) (*RentResult, error) {
	fail := func(err error) (*RentResult, error) {
		s.events.rent(RentFailed)
		return nil, err
	}

	rec, err := s.records.Get(recordID)
	if err != nil {
		return fail(err)
	}
	if !rec.KeyCustodyPersisted {
		return fail(fmt.Errorf("%w: record %s", ErrLegacyRecordBlocked, recordID))
	}

	renter := s.signer.Address()
	logger := s.logger("rent").WithField("record", recordID)
	result := &RentResult{Record: rec}

	s.events.rent(RentCheckingOwnership)
	entry, needPayment, err := s.accessPath(ctx, rec, renter)
	if err != nil {
		return fail(err)
	}

	if needPayment {
		price, err := ledger.ParseAmount(rec.Price)
		if err != nil {
			return fail(fmt.Errorf("%w: record price: %w", ErrInvalidRequest, err))
		}

		s.events.rent(RentPaying)
		logger.WithField("price", rec.Price).Info("paying rental fee")

		s.events.rent(RentAwaitingConfirmation)
		receipt, err := s.ledger.Rent(ctx, rec.ContentID, price)
		if err != nil {
			return fail(err)
		}
		result.Paid = true
		result.TxHash = receipt.TxHash
		logger.WithField("tx", receipt.TxHash).Info("rental confirmed on chain")
	}

	s.events.rent(RentRecoveringKey)
	key, err := s.recoverKey(ctx, entry)
	if err != nil {
		return fail(err)
	}

	s.events.rent(RentDecrypting)
	blob, err := s.content.Fetch(ctx, rec.ContentID)
	if err != nil {
		return fail(fmt.Errorf("rental: fetch ciphertext: %w", err))
	}
	plain, err := filecrypt.Decrypt(blob, key)
	if err != nil {
		return fail(fmt.Errorf("rental: %w", err))
	}

	result.Plaintext = plain
	s.events.rent(RentReady)
	logger.Info("content ready")
	return result, nil
}

// accessPath decides which wrapped-key entry serves this renter and whether
// a payment is required first.
func (s *Service) accessPath(ctx context.Context, rec *records.ContentRecord, renter string) (*records.WrappedKeyEntry, bool, error) {
	// A share grant carries its own policy and needs no payment.
	if entry := rec.EntryFor(renter); entry != nil {
		return entry, false, nil
	}

	entry := rec.PrimaryEntry()
	if entry == nil {
		return nil, false, fmt.Errorf("%w: record %s", ErrNoWrappedKey, rec.ID)
	}

	if signin.SameAddress(renter, rec.Owner) {
		return entry, false, nil
	}

	if s.ledger == nil {
		return nil, false, fmt.Errorf("%w: record %s", ErrRentalUnavailable, rec.ID)
	}

	// An active rental from a previous transaction still within its window
	// skips payment. The chain is the authority; never cached.
	active, err := s.ledger.IsRenter(ctx, rec.ContentID, renter)
	if err != nil {
		return nil, false, err
	}
	return entry, !active, nil
}

// recoverKey polls custody for the unwrapped key. Custody nodes re-check the
// policy against live chain state and may lag the rent transaction by a few
// blocks, so authorization rejections are retried within the recovery
// window. Terminal errors (static policy mismatch, missing expiry bound,
// content hash mismatch) stop immediately.
func (s *Service) recoverKey(ctx context.Context, entry *records.WrappedKeyEntry) ([]byte, error) {
	interval, ceiling := s.recoveryWindow()

	var key []byte
	err := retry.Poll(ctx, interval, ceiling, func(ctx context.Context) (bool, error) {
		k, err := s.custody.RecoverKey(ctx, entry.WrappedKey, entry.Policy, s.authFunc())
		if err != nil {
			if errors.Is(err, custody.ErrUnauthorized) || errors.Is(err, custody.ErrSessionExpired) {
				s.logger("rent").WithError(err).Debug("custody not ready, will retry")
				return false, nil
			}
			return false, err
		}
		key = k
		return true, nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrKeyRecoveryTimeout, err)
		}
		return nil, err
	}
	return key, nil
}
