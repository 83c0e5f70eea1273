package payments

import (
	"maps"
	"time"

	"go.uber.org/zap/zapcore"
)

// Status mirrors the provider's payment intent lifecycle.
type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
	StatusProcessing            Status = "processing"
	StatusRequiresCapture       Status = "requires_capture"
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"
	StatusFailed                Status = "failed"
)

// Resolved reports whether no further confirmation or cancellation may be
// issued for an intent in this status.
func (s Status) Resolved() bool {
	switch s {
	case StatusSucceeded, StatusProcessing, StatusCanceled, StatusFailed:
		return true
	}
	return false
}

// Final reports whether the status can never change again.
func (s Status) Final() bool {
	switch s {
	case StatusSucceeded, StatusCanceled, StatusFailed:
		return true
	}
	return false
}

// Confirmable reports whether the provider accepts a confirm call.
func (s Status) Confirmable() bool {
	switch s {
	case StatusRequiresPaymentMethod, StatusRequiresConfirmation, StatusRequiresAction:
		return true
	}
	return false
}

// ClientSecret lets the browser finish a payment. It encodes to JSON as-is but
// prints redacted through fmt and loggers.
type ClientSecret string

func (ClientSecret) String() string   { return "[REDACTED]" }
func (ClientSecret) GoString() string { return "[REDACTED]" }

type NextAction struct {
	Type        string `json:"type"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Intent is the local view of one provider payment intent.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret ClientSecret      `json:"client_secret,omitempty"`
	Status       Status            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	LastError    string            `json:"last_payment_error,omitempty"`
	ReceiptEmail string            `json:"receipt_email,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	NextAction   *NextAction       `json:"next_action,omitempty"`
	UpdatedAt    time.Time         `json:"-"`
}

// Terminal reports whether a status poll can stop: the intent succeeded, is
// processing, was canceled, or carries a definite payment failure.
// A fresh requires_payment_method intent without an error is not terminal.
func (in *Intent) Terminal() bool {
	if in.Status.Resolved() {
		return true
	}
	return in.Status == StatusRequiresPaymentMethod && in.LastError != ""
}

func (in *Intent) Clone() *Intent {
	if in == nil {
		return nil
	}
	out := *in
	out.Metadata = maps.Clone(in.Metadata)
	if in.NextAction != nil {
		na := *in.NextAction
		out.NextAction = &na
	}
	return &out
}

// Public drops the client secret, for storage and for responses to parties
// other than the paying browser.
func (in *Intent) Public() *Intent {
	out := in.Clone()
	if out != nil {
		out.ClientSecret = ""
	}
	return out
}

func (in *Intent) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", in.ID)
	enc.AddString("status", string(in.Status))
	enc.AddInt64("amount", in.Amount)
	enc.AddString("currency", in.Currency)
	if in.LastError != "" {
		enc.AddString("last_error", in.LastError)
	}
	return nil
}

// PaymentMethodPayload identifies the instrument used to confirm an intent.
type PaymentMethodPayload struct {
	Method          string // registry id, e.g. "ideal"
	PaymentMethodID string // provider payment method, e.g. "pm_..."
	SourceID        string // provider source, e.g. "src_..."
	ReturnURL       string
}

func (p PaymentMethodPayload) instrument() string {
	if p.PaymentMethodID != "" {
		return p.PaymentMethodID
	}
	return p.SourceID
}
