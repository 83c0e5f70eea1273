package payments

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/metrics"
	"storefront/internal/money"
)

// Client drives the payment intent lifecycle against a Provider and keeps the
// local view in a Store. It never issues a mutating call for an intent that is
// already resolved, so repeated confirmations and late webhooks are no-ops.
type Client struct {
	provider Provider
	store    Store
	notifier Notifier
	logger   *zap.SugaredLogger
	metrics  metrics.Recorder
	now      func() time.Time
}

// Notifier hears about every stored intent whose status or last payment error
// changed. Each change is reported once, whichever call or webhook wrote it.
type Notifier interface {
	Publish(in *Intent) bool
}

type Option func(*Client)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(recorder metrics.Recorder) Option {
	return func(c *Client) { c.metrics = recorder }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(provider Provider, store Store, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		store:    store,
		logger:   zap.NewNop().Sugar(),
		metrics:  metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CreateInput struct {
	SessionID    string
	Amount       int64
	Currency     string
	Methods      []string
	ReceiptEmail string
	Metadata     map[string]string
}

// CreateIntent starts the payment for a checkout session. A session keeps a
// single active intent: while it is unresolved and in the same currency it is
// returned again (with its amount brought up to date) instead of creating a
// second one.
func (c *Client) CreateIntent(ctx context.Context, in CreateInput) (*Intent, error) {
	if in.Amount <= 0 {
		return nil, validationf("amount must be positive, got %d", in.Amount)
	}
	if !money.ValidCurrency(in.Currency) {
		return nil, validationf("unsupported currency %q", in.Currency)
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	prev, err := c.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if prev != nil && !prev.Status.Resolved() {
		if prev.Currency == currency {
			cur, err := c.RetrieveStatus(ctx, prev.ID)
			if err != nil {
				return nil, err
			}
			if !cur.Status.Resolved() {
				if cur.Amount != in.Amount {
					return c.UpdateAmount(ctx, cur.ID, in.Amount, "")
				}
				return cur, nil
			}
			prev = cur
		} else {
			// replaced by an intent in the new currency
			if _, err := c.Cancel(ctx, prev.ID); err != nil {
				c.logger.Warnw("could not cancel replaced payment intent", "intent", prev.ID, "error", err)
			}
		}
	}

	key := "create:" + sessionID
	if prev != nil {
		key += ":" + prev.ID
	}

	metadata := maps.Clone(in.Metadata)
	if metadata == nil {
		metadata = make(map[string]string, 1)
	}
	metadata["session"] = sessionID

	start := c.now()
	pi, err := c.provider.CreateIntent(ctx, CreateRequest{
		Amount:         in.Amount,
		Currency:       currency,
		Methods:        in.Methods,
		ReceiptEmail:   in.ReceiptEmail,
		Metadata:       metadata,
		IdempotencyKey: key,
	})
	c.record("create", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: create intent: %w", err)
	}

	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}
	if err := c.store.BindSession(ctx, sessionID, pi.ID); err != nil {
		return nil, fmt.Errorf("payments: bind session: %w", err)
	}

	c.logger.Infow("payment intent created", "intent", pi, "session", sessionID)
	return pi, nil
}

// UpdateAmount changes the amount of an unresolved intent. An empty key is
// derived from the intent id, the new amount and the version of the stored
// state being changed, so a resubmitted change is applied once while a later
// change back to an earlier amount is applied again.
func (c *Client) UpdateAmount(ctx context.Context, id string, amount int64, key string) (*Intent, error) {
	if amount <= 0 {
		return nil, validationf("amount must be positive, got %d", amount)
	}
	local, err := c.ensureOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = fmt.Sprintf("amount:%s:%d:%s", id, amount, version(local))
	}

	start := c.now()
	pi, err := c.provider.UpdateIntent(ctx, id, UpdateRequest{Amount: amount, IdempotencyKey: key})
	c.record("update_amount", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: update amount: %w", err)
	}

	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}

	c.logger.Infow("payment intent amount updated", "intent", pi)
	return pi, nil
}

// UpdateCurrency switches an unresolved intent to another currency and the
// payment method types valid for it.
func (c *Client) UpdateCurrency(ctx context.Context, id, currency string, methods []string) (*Intent, error) {
	if !money.ValidCurrency(currency) {
		return nil, validationf("unsupported currency %q", currency)
	}
	local, err := c.ensureOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	currency = strings.ToLower(strings.TrimSpace(currency))

	start := c.now()
	pi, err := c.provider.UpdateIntent(ctx, id, UpdateRequest{
		Currency:       currency,
		Methods:        methods,
		IdempotencyKey: fmt.Sprintf("currency:%s:%s:%s:%s", id, currency, strings.Join(methods, ","), version(local)),
	})
	c.record("update_currency", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: update currency: %w", err)
	}

	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}
	return pi, nil
}

// Confirm finalises the intent with an instrument. If the intent is already
// resolved the current state is returned and the provider is not called.
func (c *Client) Confirm(ctx context.Context, id string, payload PaymentMethodPayload) (*Intent, error) {
	if payload.instrument() == "" {
		return nil, validationf("a payment method or source is required")
	}

	cur, err := c.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Resolved() {
		c.logger.Infow("confirm skipped, intent already resolved", "intent", cur)
		return cur, nil
	}
	if !cur.Status.Confirmable() {
		return nil, fmt.Errorf("%w: cannot confirm intent %s in status %s", ErrRejected, id, cur.Status)
	}

	start := c.now()
	pi, err := c.provider.ConfirmIntent(ctx, id, ConfirmRequest{
		PaymentMethod:  payload.PaymentMethodID,
		Source:         payload.SourceID,
		ReturnURL:      payload.ReturnURL,
		IdempotencyKey: "confirm:" + id + ":" + payload.instrument(),
	})
	c.record("confirm", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: confirm intent: %w", err)
	}

	if payload.Method != "" {
		pi = pi.Clone()
		if pi.Metadata == nil {
			pi.Metadata = make(map[string]string, 1)
		}
		pi.Metadata["method"] = payload.Method
	}
	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}

	c.logger.Infow("payment intent confirmed", "intent", pi, "method", payload.Method)
	return pi, nil
}

// RetrieveStatus reads the intent from the provider and refreshes the local view.
func (c *Client) RetrieveStatus(ctx context.Context, id string) (*Intent, error) {
	start := c.now()
	pi, err := c.provider.RetrieveIntent(ctx, id)
	c.record("retrieve", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: retrieve intent: %w", err)
	}

	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}
	return pi, nil
}

// Cancel cancels an unresolved intent, e.g. when its redirect source failed.
// Resolved intents are returned unchanged.
func (c *Client) Cancel(ctx context.Context, id string) (*Intent, error) {
	cur, err := c.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Resolved() {
		c.logger.Infow("cancel skipped, intent already resolved", "intent", cur)
		return cur, nil
	}

	start := c.now()
	pi, err := c.provider.CancelIntent(ctx, id, "cancel:"+id)
	c.record("cancel", start, err)
	if err != nil {
		return nil, fmt.Errorf("payments: cancel intent: %w", err)
	}

	if err := c.save(ctx, pi); err != nil {
		return nil, err
	}

	c.logger.Infow("payment intent canceled", "intent", pi)
	return pi, nil
}

// Observe records an intent reported by the provider outside of a call made
// here (webhooks, reconciliation). Updates that would move a final intent to
// another status, and updates that change nothing, are ignored.
func (c *Client) Observe(ctx context.Context, in *Intent) (bool, error) {
	local, err := c.local(ctx, in.ID)
	if err != nil {
		return false, err
	}

	if local != nil {
		if local.Status.Final() && local.Status != in.Status {
			c.logger.Infow("ignoring out-of-order intent update", "intent", local, "reported", in.Status)
			return false, nil
		}
		if local.Status == in.Status && local.LastError == in.LastError && local.Amount == in.Amount {
			return false, nil
		}
	}

	if local != nil {
		// event payloads may omit what only this service sets
		in = in.Clone()
		if in.Metadata == nil {
			in.Metadata = local.Metadata
		}
		if in.ReceiptEmail == "" {
			in.ReceiptEmail = local.ReceiptEmail
		}
	}

	if err := c.save(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

// Local returns the stored view of an intent without calling the provider.
func (c *Client) Local(ctx context.Context, id string) (*Intent, error) {
	in, err := c.store.Intent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payments: load intent: %w", err)
	}
	return in, nil
}

func (c *Client) local(ctx context.Context, id string) (*Intent, error) {
	in, err := c.store.Intent(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payments: load intent: %w", err)
	}
	return in, nil
}

func (c *Client) active(ctx context.Context, sessionID string) (*Intent, error) {
	id, err := c.store.ActiveIntent(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payments: session lookup: %w", err)
	}
	return c.local(ctx, id)
}

// current prefers a resolved local state and otherwise asks the provider.
func (c *Client) current(ctx context.Context, id string) (*Intent, error) {
	local, err := c.local(ctx, id)
	if err != nil {
		return nil, err
	}
	if local != nil && local.Status.Resolved() {
		return local, nil
	}
	return c.RetrieveStatus(ctx, id)
}

// ensureOpen returns the stored intent, nil when there is none, and rejects
// resolved intents.
func (c *Client) ensureOpen(ctx context.Context, id string) (*Intent, error) {
	local, err := c.local(ctx, id)
	if err != nil {
		return nil, err
	}
	if local != nil && local.Status.Resolved() {
		return nil, fmt.Errorf("%w: intent %s is %s", ErrRejected, id, local.Status)
	}
	return local, nil
}

// version identifies a stored state for idempotency keys.
func version(local *Intent) string {
	if local == nil || local.UpdatedAt.IsZero() {
		return "0"
	}
	return strconv.FormatInt(local.UpdatedAt.UnixMicro(), 36)
}

// save stores in and reports an outcome change to the notifier. The store
// decides what changed, so concurrent writers of the same outcome notify once.
func (c *Client) save(ctx context.Context, in *Intent) error {
	pending := in.Public()
	pending.UpdatedAt = c.now()
	stored, changed, err := c.store.SaveIntent(ctx, pending)
	if err != nil {
		return fmt.Errorf("payments: save intent: %w", err)
	}
	if changed && c.notifier != nil {
		c.notifier.Publish(stored)
	}
	return nil
}

func (c *Client) record(operation string, start time.Time, err error) {
	result := resultLabel(err)
	c.metrics.IncCounter("intent_call", map[string]string{"operation": operation, "result": result})
	c.metrics.ObserveLatency(operation, c.now().Sub(start), map[string]string{"result": result})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}
