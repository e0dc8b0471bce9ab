package records

import "errors"

var (
	// ErrNotFound indicates no record exists for the given id.
	ErrNotFound = errors.New("records: record not found")

	// ErrDuplicateID indicates an append with an id that already exists.
	ErrDuplicateID = errors.New("records: duplicate record id")

	// ErrNilRecord indicates a nil record or entry was passed.
	ErrNilRecord = errors.New("records: nil record")

	// ErrInvalidRecord indicates a record that fails field validation.
	ErrInvalidRecord = errors.New("records: invalid record")
)
