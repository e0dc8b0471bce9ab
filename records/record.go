// Package records is the local catalog of published content: one record per
// publish, carrying the content id, price, wrapped-key entries, and the
// custody health flag that gates rentability.
package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/agentrentorg/libagentrent-go/custody"
	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/signin"
)

// recordValidate checks the validate tags on Metadata.
var recordValidate = validator.New(validator.WithRequiredStructEnabled())

// Metadata is the human-facing description attached to a record. Every
// field is optional; the core treats metadata as opaque and only bounds
// field sizes.
type Metadata struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
}

// WrappedKeyEntry is one custody wrap of the record's symmetric key. The
// entry list is append-only: re-wraps and shares add entries, never replace
// them.
type WrappedKeyEntry struct {
	// WrappedKey is the custody network's opaque payload.
	WrappedKey *custody.WrappedKey `json:"wrappedKey"`

	// Policy is the access condition the key was wrapped under.
	Policy *policy.Policy `json:"policy"`

	// GrantedTo is the grantee address for share entries; empty for the
	// record's rental-policy entries.
	GrantedTo string `json:"grantedTo,omitempty"`

	// CreatedAt is the wrap time.
	CreatedAt time.Time `json:"createdAt"`
}

// ContentRecord is one published content item.
type ContentRecord struct {
	// ID is the record's ULID; keys records in the store, sorts by creation
	// time.
	ID string `json:"id"`

	// ContentID addresses the ciphertext in the content store.
	ContentID string `json:"contentId"`

	// Owner is the publisher's canonical lowercase address.
	Owner string `json:"owner"`

	// Price is the rental fee as a decimal whole-coin string (e.g. "0.05").
	Price string `json:"price"`

	// WrappedKeyEntries holds every custody wrap of the key, append-only.
	WrappedKeyEntries []WrappedKeyEntry `json:"wrappedKeyEntries"`

	// KeyCustodyPersisted is false when no custody wrap succeeded. Such a
	// record is legacy: it exists locally but must never be rented, because
	// a renter could pay and then fail to recover the key.
	KeyCustodyPersisted bool `json:"keyCustodyPersisted"`

	// PolicyDegraded is true when the record was published without an
	// on-chain rental clause (owner-only access).
	PolicyDegraded bool `json:"policyDegraded"`

	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecordID returns a fresh ULID record id.
func NewRecordID() string {
	return ulid.Make().String()
}

// Validate checks structural validity: id, content id, owner address, and
// metadata tags.
func (r *ContentRecord) Validate() error {
	if r == nil {
		return ErrNilRecord
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.ContentID) == "" {
		return fmt.Errorf("%w: missing content id", ErrInvalidRecord)
	}
	if _, err := signin.NormalizeAddress(r.Owner); err != nil {
		return fmt.Errorf("%w: owner: %w", ErrInvalidRecord, err)
	}
	if err := recordValidate.Struct(r.Metadata); err != nil {
		return fmt.Errorf("%w: metadata: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Rentable reports whether the record may be offered for rental. Legacy
// records (no persisted custody wrap) are excluded.
func (r *ContentRecord) Rentable() bool {
	return r != nil && r.KeyCustodyPersisted && len(r.WrappedKeyEntries) > 0
}

// PrimaryEntry returns the first rental-policy wrap, or nil.
func (r *ContentRecord) PrimaryEntry() *WrappedKeyEntry {
	for i := range r.WrappedKeyEntries {
		if r.WrappedKeyEntries[i].GrantedTo == "" {
			return &r.WrappedKeyEntries[i]
		}
	}
	return nil
}

// EntryFor returns the most recent share entry granted to addr, or nil.
func (r *ContentRecord) EntryFor(addr string) *WrappedKeyEntry {
	for i := len(r.WrappedKeyEntries) - 1; i >= 0; i-- {
		if r.WrappedKeyEntries[i].GrantedTo != "" && signin.SameAddress(r.WrappedKeyEntries[i].GrantedTo, addr) {
			return &r.WrappedKeyEntries[i]
		}
	}
	return nil
}
