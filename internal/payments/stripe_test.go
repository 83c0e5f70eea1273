package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"
)

func TestMapStripeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"server error", &stripe.Error{HTTPStatusCode: http.StatusBadGateway, Msg: "bad gateway"}, ErrTransient},
		{"rate limited", &stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}, ErrTransient},
		{"missing", &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing}, ErrNotFound},
		{"idempotency", &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Type: stripe.ErrorTypeIdempotency}, ErrRejected},
		{"bad currency", &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Type: stripe.ErrorTypeInvalidRequest}, ErrValidation},
		{"declined", &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Type: stripe.ErrorTypeCard}, ErrValidation},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapStripeError(tt.err), tt.want)
		})
	}
}

func TestMapStripeErrorUnknown(t *testing.T) {
	err := mapStripeError(errors.New("boom"))
	for _, kind := range []error{ErrTransient, ErrValidation, ErrNotFound, ErrRejected} {
		assert.NotErrorIs(t, err, kind)
	}
}

func TestFromStripe(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret_abc",
		Status:       stripe.PaymentIntentStatusRequiresAction,
		Amount:       1099,
		Currency:     stripe.CurrencyEUR,
		LastPaymentError: &stripe.Error{
			Msg: "Your card was declined.",
		},
		NextAction: &stripe.PaymentIntentNextAction{
			Type: "redirect_to_url",
			RedirectToURL: &stripe.PaymentIntentNextActionRedirectToURL{
				URL: "https://hooks.stripe.com/redirect/abc",
			},
		},
	}

	in := FromStripe(pi)

	assert.Equal(t, StatusRequiresAction, in.Status)
	assert.Equal(t, "eur", in.Currency)
	assert.Equal(t, "Your card was declined.", in.LastError)
	assert.Equal(t, "https://hooks.stripe.com/redirect/abc", in.NextAction.RedirectURL)
	assert.Equal(t, "[REDACTED]", fmt.Sprint(in.ClientSecret))
	assert.Equal(t, "pi_1_secret_abc", string(in.ClientSecret))
}
