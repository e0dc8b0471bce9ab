package records

import (
	"fmt"
	"sync"
)

// Store persists content records. Append and Update are atomic with respect
// to concurrent writers.
type Store interface {
	// GetAll returns every record, ordered by id (creation time for ULIDs).
	GetAll() ([]*ContentRecord, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(id string) (*ContentRecord, error)

	// Put replaces the full record set.
	Put(recs []*ContentRecord) error

	// Append adds a new record. Returns ErrDuplicateID if the id exists.
	Append(rec *ContentRecord) error

	// Update applies fn to the stored record with the given id and persists
	// the result. fn runs inside the store's write transaction; an error
	// from fn aborts the update.
	Update(id string, fn func(*ContentRecord) error) error
}

// ListRentable returns the records eligible for rental offers.
func ListRentable(s Store) ([]*ContentRecord, error) {
	all, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	var out []*ContentRecord
	for _, r := range all {
		if r.Rentable() {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByContentID returns the first record whose ContentID matches cid, or
// ErrNotFound.
func FindByContentID(s Store, cid string) (*ContentRecord, error) {
	all, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if r.ContentID == cid {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: content id %s", ErrNotFound, cid)
}

// MemStore is an in-memory Store for tests and ephemeral sessions. Records
// are deep-copied through JSON on the Bolt path; here they are copied
// shallowly per record struct, so callers must not mutate returned entries
// outside Update.
type MemStore struct {
	mu   sync.Mutex
	recs []*ContentRecord
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) GetAll() ([]*ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ContentRecord, len(m.recs))
	for i, r := range m.recs {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (m *MemStore) Get(id string) (*ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (m *MemStore) Put(recs []*ContentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = make([]*ContentRecord, len(recs))
	for i, r := range recs {
		cp := *r
		m.recs[i] = &cp
	}
	return nil
}

func (m *MemStore) Append(rec *ContentRecord) error {
	if rec == nil {
		return ErrNilRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
	}
	cp := *rec
	m.recs = append(m.recs, &cp)
	return nil
}

func (m *MemStore) Update(id string, fn func(*ContentRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.recs {
		if r.ID == id {
			// fn mutates a copy so an error leaves the stored record intact,
			// matching the Bolt store's transaction abort.
			cp := *r
			if err := fn(&cp); err != nil {
				return err
			}
			m.recs[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
