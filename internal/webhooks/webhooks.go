// Package webhooks verifies provider events and applies them to the local
// intent state. Deliveries are at least once and may arrive out of order.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"storefront/internal/metrics"
	"storefront/internal/payments"
)

type Intents interface {
	Observe(ctx context.Context, in *payments.Intent) (bool, error)
	Confirm(ctx context.Context, id string, payload payments.PaymentMethodPayload) (*payments.Intent, error)
	Cancel(ctx context.Context, id string) (*payments.Intent, error)
	Local(ctx context.Context, id string) (*payments.Intent, error)
}

type Deliveries interface {
	SeenDelivery(ctx context.Context, eventID string) (bool, error)
	RecordDelivery(ctx context.Context, eventID, eventType string) error
}

type Result string

const (
	ResultProcessed Result = "processed"
	ResultDuplicate Result = "duplicate"
	ResultIgnored   Result = "ignored"
)

// Source is the part of a source object the handlers read.
type Source struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type Processor struct {
	intents    Intents
	deliveries Deliveries
	secret     string
	logger     *zap.SugaredLogger
	metrics    metrics.Recorder
}

// NewProcessor builds a processor. Outcome events are published by the
// intents client when a change is stored, not here.
func NewProcessor(intents Intents, deliveries Deliveries, secret string, logger *zap.SugaredLogger, recorder metrics.Recorder) *Processor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Processor{
		intents:    intents,
		deliveries: deliveries,
		secret:     secret,
		logger:     logger,
		metrics:    recorder,
	}
}

// Verifies reports whether signatures are checked. Without a signing secret
// events are accepted as-is, which is only meant for local development.
func (p *Processor) Verifies() bool { return p.secret != "" }

// Parse decodes an event, verifying its signature when a secret is set.
// Verification failures wrap payments.ErrIntegrity.
func (p *Processor) Parse(payload []byte, signature string) (*stripe.Event, error) {
	if p.secret == "" {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("%w: decode event: %v", payments.ErrValidation, err)
		}
		return &event, nil
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		p.metrics.IncCounter("webhook", map[string]string{"operation": "verify", "result": "rejected"})
		return nil, fmt.Errorf("%w: %v", payments.ErrIntegrity, err)
	}
	return &event, nil
}

// Handle applies an event. A delivery that was already processed is
// acknowledged without doing anything; a delivery is recorded only after it
// was handled so failed deliveries are retried by the provider.
func (p *Processor) Handle(ctx context.Context, event *stripe.Event) (Result, error) {
	eventType := string(event.Type)

	if event.ID != "" {
		seen, err := p.deliveries.SeenDelivery(ctx, event.ID)
		if err != nil {
			return "", fmt.Errorf("webhooks: check delivery: %w", err)
		}
		if seen {
			p.logger.Infow("duplicate webhook delivery", "event", event.ID, "type", eventType)
			p.record(eventType, ResultDuplicate)
			return ResultDuplicate, nil
		}
	}

	var (
		result Result
		err    error
	)
	switch {
	case strings.HasPrefix(eventType, "payment_intent."):
		result, err = p.handlePaymentIntent(ctx, event)
	case strings.HasPrefix(eventType, "source."):
		result, err = p.handleSource(ctx, event)
	default:
		result = ResultIgnored
	}
	if err != nil {
		p.record(eventType, "error")
		return "", err
	}

	if event.ID != "" {
		if err := p.deliveries.RecordDelivery(ctx, event.ID, eventType); err != nil {
			return "", fmt.Errorf("webhooks: record delivery: %w", err)
		}
	}
	p.record(eventType, result)
	return result, nil
}

func (p *Processor) handlePaymentIntent(ctx context.Context, event *stripe.Event) (Result, error) {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled",
		"payment_intent.processing", "payment_intent.requires_action", "payment_intent.amount_capturable_updated":
	default:
		return ResultIgnored, nil
	}

	var pi stripe.PaymentIntent
	if err := decodeObject(event, &pi); err != nil {
		return "", err
	}
	in := payments.FromStripe(&pi)

	applied, err := p.intents.Observe(ctx, in)
	if err != nil {
		return "", fmt.Errorf("webhooks: apply %s: %w", event.Type, err)
	}
	if !applied {
		return ResultIgnored, nil
	}

	if in.Status == payments.StatusRequiresPaymentMethod && in.LastError != "" {
		p.logger.Infow("payment failed", "intent", in)
	} else {
		p.logger.Infow("payment intent updated", "intent", in, "event", event.Type)
	}
	return ResultProcessed, nil
}

func (p *Processor) handleSource(ctx context.Context, event *stripe.Event) (Result, error) {
	var src Source
	if err := decodeObject(event, &src); err != nil {
		return "", err
	}
	intentID := src.Metadata["paymentIntent"]
	if intentID == "" {
		return ResultIgnored, nil
	}

	before, err := p.intents.Local(ctx, intentID)
	if errors.Is(err, payments.ErrNotFound) {
		before, err = &payments.Intent{ID: intentID}, nil
	}
	if err != nil {
		return "", fmt.Errorf("webhooks: source %s: %w", src.ID, err)
	}

	var after *payments.Intent
	switch src.Status {
	case "chargeable":
		p.logger.Infow("source is chargeable", "source", src.ID, "intent", intentID)
		after, err = p.intents.Confirm(ctx, intentID, payments.PaymentMethodPayload{Method: src.Type, SourceID: src.ID})
	case "failed", "canceled":
		p.logger.Infow("source did not complete, canceling intent", "source", src.ID, "status", src.Status, "intent", intentID)
		after, err = p.intents.Cancel(ctx, intentID)
	default:
		return ResultIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("webhooks: source %s: %w", src.ID, err)
	}

	if after.Status == before.Status && after.LastError == before.LastError {
		return ResultIgnored, nil
	}
	return ResultProcessed, nil
}

func (p *Processor) record(eventType string, result Result) {
	p.metrics.IncCounter("webhook", map[string]string{"operation": eventType, "result": string(result)})
}

func decodeObject(event *stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: event %s has no object", payments.ErrValidation, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: decode %s object: %v", payments.ErrValidation, event.Type, err)
	}
	return nil
}
