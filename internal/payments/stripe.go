package payments

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeProvider implements Provider on the Stripe PaymentIntents API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) API() *client.API { return p.api }

func (p *StripeProvider) CreateIntent(ctx context.Context, req CreateRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice(req.Methods),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return FromStripe(pi), nil
}

func (p *StripeProvider) UpdateIntent(ctx context.Context, id string, req UpdateRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	if req.Amount > 0 {
		params.Amount = stripe.Int64(req.Amount)
	}
	if req.Currency != "" {
		params.Currency = stripe.String(req.Currency)
	}
	if len(req.Methods) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.Methods)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.Update(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return FromStripe(pi), nil
}

// ConfirmIntent confirms with a payment method or a chargeable source. A card
// decline is not an error here: the intent comes back as
// requires_payment_method carrying the decline message.
func (p *StripeProvider) ConfirmIntent(ctx context.Context, id string, req ConfirmRequest) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	if req.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethod)
	}
	if req.Source != "" {
		params.AddExtra("source", req.Source)
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return p.RetrieveIntent(ctx, id)
		}
		return nil, mapStripeError(err)
	}
	return FromStripe(pi), nil
}

func (p *StripeProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return FromStripe(pi), nil
}

func (p *StripeProvider) CancelIntent(ctx context.Context, id string, idempotencyKey string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := p.api.PaymentIntents.Cancel(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return FromStripe(pi), nil
}

// FromStripe converts a provider payment intent into the local view.
func FromStripe(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: ClientSecret(pi.ClientSecret),
		Status:       Status(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ReceiptEmail: pi.ReceiptEmail,
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		in.LastError = pi.LastPaymentError.Msg
		if in.LastError == "" {
			in.LastError = string(pi.LastPaymentError.Code)
		}
	}
	if pi.NextAction != nil {
		in.NextAction = &NextAction{Type: string(pi.NextAction.Type)}
		if pi.NextAction.RedirectToURL != nil {
			in.NextAction.RedirectURL = pi.NextAction.RedirectToURL.URL
		}
	}
	return in
}

// mapStripeError converts stripe-go errors into the package's error kinds so
// callers never import stripe-go.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
			stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
			stripeErr.Type == stripe.ErrorTypeAPI:
			return fmt.Errorf("%w: %s", ErrTransient, stripeErr.Msg)
		case stripeErr.HTTPStatusCode == http.StatusNotFound,
			stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
		case stripeErr.Type == stripe.ErrorTypeIdempotency,
			stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState:
			return fmt.Errorf("%w: %s", ErrRejected, stripeErr.Msg)
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest,
			stripeErr.Type == stripe.ErrorTypeCard:
			return fmt.Errorf("%w: %s", ErrValidation, stripeErr.Msg)
		}
		return fmt.Errorf("payments: stripe: %s", stripeErr.Msg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return fmt.Errorf("payments: stripe: %w", err)
}
