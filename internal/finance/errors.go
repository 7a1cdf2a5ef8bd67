package finance

import "errors"

var (
	// ErrNotFound is returned when a transaction id does not exist for the
	// requesting scope.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidState is returned when a verification is requested on a
	// transaction that is not provisional.
	ErrInvalidState = errors.New("transaction is not in provisional state")

	// ErrInvalidInput is returned when creation parameters violate the
	// persistence policy (non-positive amount, empty concept).
	ErrInvalidInput = errors.New("invalid transaction input")

	// ErrNotOwner is returned when a caller operates on a transaction that
	// belongs to a different user.
	ErrNotOwner = errors.New("transaction belongs to another user")
)
