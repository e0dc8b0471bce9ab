package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketRecords = []byte("content_records")

// BoltStore persists content records in a bbolt database. Record ids (ULIDs)
// key the bucket, so iteration order is creation order.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("records: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("records: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) GetAll() ([]*ContentRecord, error) {
	var recs []*ContentRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var rec ContentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("boltstore: decode record %s: %w", k, err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("records: get all: %w", err)
	}
	return recs, nil
}

func (s *BoltStore) Get(id string) (*ContentRecord, error) {
	var rec ContentRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("boltstore: decode record %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put replaces the full record set in one write transaction.
func (s *BoltStore) Put(recs []*ContentRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil {
			return fmt.Errorf("boltstore: clear records: %w", err)
		}
		b, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return fmt.Errorf("boltstore: recreate bucket: %w", err)
		}
		for _, rec := range recs {
			if rec == nil {
				return ErrNilRecord
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("boltstore: encode record %s: %w", rec.ID, err)
			}
			if err := b.Put([]byte(rec.ID), data); err != nil {
				return fmt.Errorf("boltstore: put record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) Append(rec *ContentRecord) error {
	if rec == nil {
		return ErrNilRecord
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("boltstore: encode record %s: %w", rec.ID, err)
		}
		if err := b.Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("boltstore: put record %s: %w", rec.ID, err)
		}
		return nil
	})
}

// Update applies fn to the stored record inside a single write transaction,
// so concurrent updates never interleave.
func (s *BoltStore) Update(id string, fn func(*ContentRecord) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var rec ContentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("boltstore: decode record %s: %w", id, err)
		}
		if err := fn(&rec); err != nil {
			return err
		}

		out, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("boltstore: encode record %s: %w", id, err)
		}
		if err := b.Put([]byte(id), out); err != nil {
			return fmt.Errorf("boltstore: update record %s: %w", id, err)
		}
		return nil
	})
}
