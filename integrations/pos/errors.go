package pos

import "errors"

var (
	// ErrBackendUnavailable is returned when the POS backend cannot be
	// reached or answers with a server error. Callers keep the session in
	// its current phase and invite a retry; data is never invented.
	ErrBackendUnavailable = errors.New("pos backend unavailable")

	// ErrNotFound is returned for 404 answers on lookups.
	ErrNotFound = errors.New("pos: not found")

	// ErrInvalidResponse is returned when the backend answer cannot be decoded.
	ErrInvalidResponse = errors.New("pos: invalid response")
)

// OrderRejectedError carries the backend's verbatim rejection message so
// it can be surfaced to the customer alongside the generic fallback.
type OrderRejectedError struct {
	Message string
}

func (e *OrderRejectedError) Error() string {
	return "pos: order rejected: " + e.Message
}
