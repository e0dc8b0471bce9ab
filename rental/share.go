package rental

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/records"
	"github.com/agentrentorg/libagentrent-go/signin"
)

// Share grants grantee free access to a record's content. The owner recovers
// the raw key from custody, re-wraps it under an equality policy naming the
// grantee, and appends exactly one new wrapped-key entry. Existing entries
// are never modified.
func (s *Service) Share(ctx context.Context, recordID, grantee string) error {
	granteeAddr, err := signin.NormalizeAddress(grantee)
	if err != nil {
		return fmt.Errorf("%w: grantee: %w", ErrInvalidRequest, err)
	}

	rec, err := s.records.Get(recordID)
	if err != nil {
		return err
	}
	if !signin.SameAddress(s.signer.Address(), rec.Owner) {
		return fmt.Errorf("%w: record %s", ErrNotOwner, recordID)
	}
	if !rec.KeyCustodyPersisted {
		return fmt.Errorf("%w: record %s", ErrLegacyRecordBlocked, recordID)
	}

	entry := rec.PrimaryEntry()
	if entry == nil {
		return fmt.Errorf("%w: record %s", ErrNoWrappedKey, recordID)
	}

	// Owner recovery does not need the recovery poll; the owner clause is
	// static.
	key, err := s.custody.RecoverKey(ctx, entry.WrappedKey, entry.Policy, s.authFunc())
	if err != nil {
		return err
	}

	sharePol, err := policy.BuildSharePolicy(granteeAddr)
	if err != nil {
		return fmt.Errorf("rental: build share policy: %w", err)
	}

	wrapped, err := s.custody.PersistKey(ctx, key, sharePol, s.authFunc(), 0)
	if err != nil {
		return err
	}

	err = s.records.Update(recordID, func(r *records.ContentRecord) error {
		r.WrappedKeyEntries = append(r.WrappedKeyEntries, records.WrappedKeyEntry{
			WrappedKey: wrapped,
			Policy:     sharePol,
			GrantedTo:  granteeAddr,
			CreatedAt:  time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("rental: update record: %w", err)
	}

	s.logger("share").WithFields(log.Fields{
		"record":  recordID,
		"grantee": granteeAddr,
	}).Info("access granted")
	return nil
}
