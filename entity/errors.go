package entity

import "errors"

var (
	ErrNotFound                = errors.New("booking not found")
	ErrInvalidState            = errors.New("booking is not pending")
	ErrForbidden               = errors.New("manager does not own this booking")
	ErrUnknownStorageReference = errors.New("storage booking does not belong to this booking")

	// ErrPaymentIncomplete marks a decision where at least one unit's payment
	// operation failed. The successful units are persisted; the caller retries
	// the failed subset.
	ErrPaymentIncomplete = errors.New("one or more payment operations failed")

	// ErrPersistence marks a failure to commit unit statuses after the payment
	// phase. Payments already made are kept; the booking stays claimable.
	ErrPersistence = errors.New("could not persist decision outcomes")
)
