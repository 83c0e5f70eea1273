package payments

import "context"

type CreateRequest struct {
	Amount         int64
	Currency       string
	Methods        []string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	Amount         int64
	Currency       string
	Methods        []string
	IdempotencyKey string
}

type ConfirmRequest struct {
	PaymentMethod  string
	Source         string
	ReturnURL      string
	IdempotencyKey string
}

// Provider is the external payment processor. Implementations translate
// provider failures into ErrValidation, ErrTransient, ErrNotFound or
// ErrRejected.
type Provider interface {
	CreateIntent(ctx context.Context, req CreateRequest) (*Intent, error)
	UpdateIntent(ctx context.Context, id string, req UpdateRequest) (*Intent, error)
	ConfirmIntent(ctx context.Context, id string, req ConfirmRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string, idempotencyKey string) (*Intent, error)
}

// Store keeps the local view of intents and binds each checkout session to
// its single active intent. Stored intents never carry a client secret.
type Store interface {
	Intent(ctx context.Context, id string) (*Intent, error)
	// SaveIntent writes in and returns the stored row. Metadata keys and the
	// receipt e-mail missing from in are kept, and a final status is never
	// replaced by another one. changed reports whether the stored status or
	// last payment error differs from the previous row.
	SaveIntent(ctx context.Context, in *Intent) (stored *Intent, changed bool, err error)
	ActiveIntent(ctx context.Context, sessionID string) (string, error)
	BindSession(ctx context.Context, sessionID, intentID string) error
}
