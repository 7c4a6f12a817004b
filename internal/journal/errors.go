package journal

import "errors"

// Journal errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. The journal is append-only;
	// executed plans and summaries are never rewritten.
	ErrDuplicateKey = errors.New("duplicate key: journal does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
