package sessionRepo

import (
	"context"
	"errors"

	"glowdesk/models"
)

// ErrNotFound is returned when no session exists for the customer key.
var ErrNotFound = errors.New("session not found")

// Store persists one Session per customer identity. Mutation of a given
// customer's session must be serialized: callers hold the key lock from
// Lock() across the whole load-modify-store cycle so duplicate or
// out-of-order deliveries from the transport cannot lose updates.
type Store interface {
	Get(ctx context.Context, customerID string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, customerID string) error
	// Lock blocks until the caller owns the per-key lock and returns the
	// unlock function. Different customers proceed independently.
	Lock(customerID string) (unlock func())
}
