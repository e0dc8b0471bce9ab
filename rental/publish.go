package rental

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentrentorg/libagentrent-go/filecrypt"
	"github.com/agentrentorg/libagentrent-go/ledger"
	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/records"
)

// PublishRequest describes one content item to publish.
type PublishRequest struct {
	// Name is the file name sent to the content store.
	Name string

	// Data is the plaintext to encrypt and publish.
	Data []byte

	// Price is the rental fee as a decimal whole-coin string (e.g. "0.05").
	Price string

	Metadata records.Metadata
}

// PublishResult reports the outcome of a publish. A non-nil result with a
// non-nil CustodyErr means the record exists but is legacy: its key never
// reached custody and rental is blocked until RetryPersist succeeds.
type PublishResult struct {
	Record *records.ContentRecord

	// TxHash is the on-chain registration transaction, when one was sent.
	TxHash string

	// RegisterErr carries a failed on-chain registration. Non-fatal: the
	// content is still published and the key persisted.
	RegisterErr error

	// CustodyErr carries an exhausted key persist. The caller may retry
	// with RetryPersist using Key.
	CustodyErr error

	// Key is the raw symmetric key, exposed only when CustodyErr is set so
	// the caller can drive RetryPersist. Nil on healthy publishes.
	Key []byte
}

// Publish encrypts data, uploads the ciphertext, registers the content on
// chain, and persists the key to custody under the rental policy.
//
// Two failures degrade instead of aborting: a failed on-chain registration
// (content still works, surfaced via RegisterErr) and an exhausted key
// persist (record saved with KeyCustodyPersisted=false, surfaced via
// CustodyErr). Everything else fails the publish.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidRequest)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidRequest)
	}
	price, err := ledger.ParseAmount(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: price: %w", ErrInvalidRequest, err)
	}

	logger := s.logger("publish").WithField("name", req.Name)
	fail := func(err error) (*PublishResult, error) {
		s.events.publish(PublishFailed)
		return nil, err
	}

	s.events.publish(PublishEncrypting)
	key, blob, err := filecrypt.Encrypt(req.Data)
	if err != nil {
		return fail(fmt.Errorf("rental: encrypt: %w", err))
	}

	s.events.publish(PublishUploading)
	cid, err := s.content.Upload(ctx, req.Name, blob)
	if err != nil {
		return fail(fmt.Errorf("rental: upload: %w", err))
	}
	logger = logger.WithField("cid", cid)
	logger.Info("ciphertext uploaded")

	result := &PublishResult{}

	// On-chain registration is best effort. A record that never registered
	// can still be decrypted by its owner and re-registered later.
	if s.ledger != nil {
		s.events.publish(PublishRegistering)
		txHash, err := s.ledger.RegisterContent(ctx, cid, price)
		if err != nil {
			logger.WithError(err).Warn("on-chain registration failed, continuing")
			result.RegisterErr = err
		} else {
			result.TxHash = txHash
			logger.WithField("tx", txHash).Info("content registered on chain")
		}
	}

	owner := s.signer.Address()
	pol, err := policy.BuildRentalPolicy(owner, cid, s.rentalContract, s.chainID)
	if err != nil {
		return fail(fmt.Errorf("rental: build policy: %w", err))
	}
	if pol.Degraded {
		logger.Warn("no rental contract configured, policy is owner-only")
	}

	rec := &records.ContentRecord{
		ID:             records.NewRecordID(),
		ContentID:      cid,
		Owner:          owner,
		Price:          req.Price,
		PolicyDegraded: pol.Degraded,
		Metadata:       req.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	s.events.publish(PublishPersistingKey)
	wrapped, err := s.custody.PersistKey(ctx, key, pol, s.authFunc(), 0)
	if err != nil {
		// The record is still created so the publish is not lost, but it is
		// legacy until a persist retry succeeds.
		logger.WithError(err).Error("key persist exhausted, record saved as legacy")
		result.CustodyErr = err
		result.Key = key
	} else {
		rec.KeyCustodyPersisted = true
		rec.WrappedKeyEntries = []records.WrappedKeyEntry{{
			WrappedKey: wrapped,
			Policy:     pol,
			CreatedAt:  time.Now().UTC(),
		}}
	}

	if err := rec.Validate(); err != nil {
		return fail(err)
	}
	if err := s.records.Append(rec); err != nil {
		return fail(fmt.Errorf("rental: save record: %w", err))
	}
	result.Record = rec

	if result.CustodyErr != nil {
		s.events.publish(PublishDoneDegraded)
	} else {
		s.events.publish(PublishDone)
		logger.Info("published")
	}
	return result, nil
}

// RetryPersist re-wraps key under a fresh rental policy for the given legacy
// record, appends exactly one wrapped-key entry, and marks the record
// rentable. key must be the raw key from the original publish.
func (s *Service) RetryPersist(ctx context.Context, recordID string, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", ErrInvalidRequest)
	}

	rec, err := s.records.Get(recordID)
	if err != nil {
		return err
	}
	if rec.KeyCustodyPersisted {
		return fmt.Errorf("%w: %s", ErrAlreadyPersisted, recordID)
	}

	pol, err := policy.BuildRentalPolicy(rec.Owner, rec.ContentID, s.rentalContract, s.chainID)
	if err != nil {
		return fmt.Errorf("rental: build policy: %w", err)
	}

	wrapped, err := s.custody.PersistKey(ctx, key, pol, s.authFunc(), 0)
	if err != nil {
		return err
	}

	err = s.records.Update(recordID, func(r *records.ContentRecord) error {
		r.WrappedKeyEntries = append(r.WrappedKeyEntries, records.WrappedKeyEntry{
			WrappedKey: wrapped,
			Policy:     pol,
			CreatedAt:  time.Now().UTC(),
		})
		r.KeyCustodyPersisted = true
		r.PolicyDegraded = pol.Degraded
		return nil
	})
	if err != nil {
		return fmt.Errorf("rental: update record: %w", err)
	}

	s.logger("retry-persist").WithField("record", recordID).Info("key persisted, record rentable")
	return nil
}
