package rental

import (
	"errors"
	"fmt"
)

var (
	// ErrLegacyRecordBlocked indicates a rent attempt against a record whose
	// key was never persisted to custody. Blocked before any payment: a
	// renter could otherwise pay for a key nobody can release.
	ErrLegacyRecordBlocked = errors.New("rental: record has no persisted key, rental blocked")

	// ErrKeyRecoveryTimeout indicates the custody network kept rejecting the
	// unwrap for the whole post-payment recovery window.
	ErrKeyRecoveryTimeout = errors.New("rental: key recovery timed out")

	// ErrRentalUnavailable indicates a non-owner rent attempt with no ledger
	// configured.
	ErrRentalUnavailable = errors.New("rental: no rental ledger configured")

	// ErrNotOwner indicates a share attempt by someone other than the
	// record's owner.
	ErrNotOwner = errors.New("rental: caller does not own the record")

	// ErrNoWrappedKey indicates a record without a usable wrapped-key entry.
	ErrNoWrappedKey = errors.New("rental: record has no wrapped key entry")

	// ErrAlreadyPersisted indicates a persist retry against a healthy record.
	ErrAlreadyPersisted = errors.New("rental: record key already persisted")

	// ErrNilDependency indicates a service constructed without a required
	// dependency.
	ErrNilDependency = errors.New("rental: missing dependency")

	// ErrInvalidRequest indicates a malformed publish or rent request.
	ErrInvalidRequest = errors.New("rental: invalid request")
)

func errMissing(what string) error {
	return fmt.Errorf("%w: %s", ErrNilDependency, what)
}
