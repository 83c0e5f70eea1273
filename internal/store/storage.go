package store

import (
	"context"
	"time"

	"storefront/internal/payments"
)

var (
	// ErrNotFound is payments.ErrNotFound so the payments client can tell a
	// missing intent from a failing store.
	ErrNotFound          = payments.ErrNotFound
	QueryTimeoutDuration = time.Second * 5
)

type ListFilter struct {
	Status payments.Status
	Limit  int
	Offset int
}

// Storage is the local record of intents, checkout sessions and processed
// webhook deliveries.
type Storage interface {
	payments.Store

	// ListIntents returns intents newest first, plus the total matching the filter.
	ListIntents(ctx context.Context, filter ListFilter) ([]*payments.Intent, int, error)
	// PendingIntents returns unresolved intents last updated before the cutoff.
	PendingIntents(ctx context.Context, updatedBefore time.Time, limit int) ([]*payments.Intent, error)

	SeenDelivery(ctx context.Context, eventID string) (bool, error)
	RecordDelivery(ctx context.Context, eventID, eventType string) error

	Ping(ctx context.Context) error
	Close()
}

var unresolved = []payments.Status{
	payments.StatusRequiresPaymentMethod,
	payments.StatusRequiresConfirmation,
	payments.StatusRequiresAction,
	payments.StatusRequiresCapture,
}
