package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"storefront/internal/payments"
	"storefront/internal/webhooks"
)

const maxWebhookBytes = 65536

type WebhookResponse struct {
	Received bool            `json:"received"`
	Result   webhooks.Result `json:"result"`
}

// webhookHandler godoc
//
//	@Summary		Provider webhook
//	@Description	Signed payment intent and source events. Duplicate deliveries are acknowledged without reprocessing.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Event signature"
//	@Success		200					{object}	WebhookResponse
//	@Failure		400					{object}	error
//	@Failure		503					{object}	error
//	@Router			/webhook [post]
func (app *application) webhookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.webhooks.Parse(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrIntegrity) {
			app.logger.Warnw("webhook signature rejected", "remote", r.RemoteAddr)
		}
		app.paymentErrorResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	result, err := app.webhooks.Handle(ctx, event)
	if err != nil {
		// anything but a 2xx makes the provider redeliver
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("webhook handled", "event", event.ID, "type", event.Type, "result", result)

	if err := app.jsonResponse(w, http.StatusOK, WebhookResponse{Received: true, Result: result}); err != nil {
		app.internalServerError(w, r, err)
	}
}
