package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/inventory"
	"storefront/internal/methods"
	"storefront/internal/payments"
	"storefront/internal/poller"
	"storefront/internal/session"
)

const providerCallTimeout = 15 * time.Second

// maxStatusWait keeps a waiting status request inside the server's write timeout.
const maxStatusWait = 40 * time.Second

var errInvalidAmount = errors.New("amount must be a positive integer in minor units")

type CreatePaymentIntentPayload struct {
	Currency string           `json:"currency" validate:"required,currency"`
	Items    []inventory.Item `json:"items" validate:"required,min=1,dive"`
	Email    string           `json:"email,omitempty" validate:"omitempty,email"`
}

type CreatePaymentIntentResponse struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
	SessionToken  string           `json:"sessionToken"`
	OrderNumber   string           `json:"orderNumber"`
}

type ShippingChangePayload struct {
	Items          []inventory.Item `json:"items" validate:"required,min=1,dive"`
	ShippingOption struct {
		ID string `json:"id" validate:"required"`
	} `json:"shippingOption"`
}

type UpdateCurrencyPayload struct {
	Currency       string   `json:"currency" validate:"required,currency"`
	PaymentMethods []string `json:"paymentMethods,omitempty"`
}

type ConfirmPaymentIntentPayload struct {
	PaymentMethod   string `json:"paymentMethod" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
	Source          string `json:"source,omitempty"`
	ReturnURL       string `json:"returnUrl,omitempty" validate:"omitempty,url"`
}

type PaymentIntentResponse struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
}

type ConfirmPaymentIntentResponse struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
	NextAction    checkout.Action  `json:"nextAction"`
}

type IntentStatus struct {
	ID        string          `json:"id"`
	Status    payments.Status `json:"status"`
	LastError string          `json:"last_payment_error,omitempty"`
}

type IntentStatusResponse struct {
	PaymentIntent IntentStatus `json:"paymentIntent"`
	TimedOut      bool         `json:"timedOut,omitempty"`
}

// createPaymentIntentHandler godoc
//
//	@Summary		Create payment intent
//	@Description	Prices the cart from the catalog and creates, or reuses, the payment intent of the checkout session. The client secret is returned only here.
//	@Tags			payment-intents
//	@Accept			json
//	@Produce		json
//	@Param			X-Checkout-Session	header		string						false	"Session token from an earlier call"
//	@Param			payload				body		CreatePaymentIntentPayload	true	"Cart"
//	@Success		200					{object}	CreatePaymentIntentResponse
//	@Failure		400					{object}	error
//	@Failure		503					{object}	error
//	@Router			/payment_intents [post]
func (app *application) createPaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePaymentIntentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	amount, err := app.catalog.Amount(payload.Items, "")
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	sessionID, orderNumber, err := app.checkoutSession(r)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
	defer cancel()

	currency := strings.ToLower(payload.Currency)
	in, err := app.payments.CreateIntent(ctx, payments.CreateInput{
		SessionID:    sessionID,
		Amount:       amount,
		Currency:     currency,
		Methods:      app.registry.SupportedFor(currency, app.config.store.paymentMethods),
		ReceiptEmail: payload.Email,
		Metadata:     map[string]string{"order": orderNumber},
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	token, err := app.sessions.Issue(sessionID, orderNumber)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	out := CreatePaymentIntentResponse{PaymentIntent: in, SessionToken: token, OrderNumber: orderNumber}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// checkoutSession continues the session named by the request header or starts
// a new one. An expired or foreign token starts a new session.
func (app *application) checkoutSession(r *http.Request) (string, string, error) {
	if token := strings.TrimSpace(r.Header.Get(sessionHeader)); token != "" {
		claims, err := app.sessions.Parse(token)
		if err == nil {
			return claims.SessionID(), claims.OrderNumber, nil
		}
		app.logger.Infow("starting new checkout session", "reason", err.Error())
	}

	orderNumber, err := app.orders.Generate()
	if err != nil {
		return "", "", err
	}
	return session.NewSessionID(), orderNumber, nil
}

// shippingChangeHandler godoc
//
//	@Summary		Change shipping option
//	@Description	Reprices the cart with the chosen shipping option and updates the intent amount.
//	@Tags			payment-intents
//	@Accept			json
//	@Produce		json
//	@Param			intentID			path		string					true	"Payment intent ID"
//	@Param			X-Checkout-Session	header		string					true	"Session token"
//	@Param			payload				body		ShippingChangePayload	true	"Cart and shipping option"
//	@Success		200					{object}	PaymentIntentResponse
//	@Failure		400					{object}	error
//	@Failure		403					{object}	error
//	@Router			/payment_intents/{intentID}/shipping_change [post]
func (app *application) shippingChangeHandler(w http.ResponseWriter, r *http.Request) {
	var payload ShippingChangePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	amount, err := app.catalog.Amount(payload.Items, payload.ShippingOption.ID)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
	defer cancel()

	in, err := app.payments.UpdateAmount(ctx, getIntentFromContext(r).ID, amount, "")
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, PaymentIntentResponse{PaymentIntent: in.Public()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateCurrencyHandler godoc
//
//	@Summary		Change currency
//	@Description	Switches the intent to another currency with the payment methods valid for it.
//	@Tags			payment-intents
//	@Accept			json
//	@Produce		json
//	@Param			intentID			path		string					true	"Payment intent ID"
//	@Param			X-Checkout-Session	header		string					true	"Session token"
//	@Param			payload				body		UpdateCurrencyPayload	true	"Currency and methods"
//	@Success		200					{object}	PaymentIntentResponse
//	@Failure		400					{object}	error
//	@Failure		403					{object}	error
//	@Router			/payment_intents/{intentID}/update_currency [post]
func (app *application) updateCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateCurrencyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	currency := strings.ToLower(payload.Currency)
	supported := app.registry.SupportedFor(currency, app.enabledMethods(payload.PaymentMethods))

	ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
	defer cancel()

	in, err := app.payments.UpdateCurrency(ctx, getIntentFromContext(r).ID, currency, supported)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, PaymentIntentResponse{PaymentIntent: in.Public()}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// confirmPaymentIntentHandler godoc
//
//	@Summary		Confirm payment intent
//	@Description	Confirms the intent with the selected method and tells the browser what to do next: collect details, redirect, show instructions, poll or finish. Confirming a resolved intent returns its state without charging again.
//	@Tags			payment-intents
//	@Accept			json
//	@Produce		json
//	@Param			intentID			path		string						true	"Payment intent ID"
//	@Param			X-Checkout-Session	header		string						true	"Session token"
//	@Param			payload				body		ConfirmPaymentIntentPayload	true	"Instrument"
//	@Success		200					{object}	ConfirmPaymentIntentResponse
//	@Failure		400					{object}	error
//	@Failure		403					{object}	error
//	@Failure		503					{object}	error
//	@Router			/payment_intents/{intentID}/confirm [post]
func (app *application) confirmPaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	var payload ConfirmPaymentIntentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	before := getIntentFromContext(r)
	attempt := checkout.NewAttempt(app.registry, before.ID)

	action, err := attempt.Select(payload.PaymentMethod)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	method := attempt.Method()
	if !slices.Contains(app.registry.SupportedFor(before.Currency, app.config.store.paymentMethods), method.ID) {
		app.badRequestResponse(w, r, fmt.Errorf("%s is not available for %s payments", method.DisplayName, strings.ToUpper(before.Currency)))
		return
	}

	switch method.Flow {
	case methods.FlowReceiver:
		// confirmed by the source.chargeable webhook once the customer pays
		out := ConfirmPaymentIntentResponse{PaymentIntent: before.Public(), NextAction: action}
		if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	case methods.FlowRedirect:
		if payload.ReturnURL == "" {
			app.badRequestResponse(w, r, fmt.Errorf("returnUrl is required for %s", method.DisplayName))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
	defer cancel()

	after, err := app.payments.Confirm(ctx, before.ID, payments.PaymentMethodPayload{
		Method:          method.ID,
		PaymentMethodID: payload.PaymentMethodID,
		SourceID:        payload.Source,
		ReturnURL:       payload.ReturnURL,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	action, err = attempt.Resolve(after)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("checkout step", "intent", after.ID, "order", getSessionFromContext(r).OrderNumber, "method", method.ID, "next", action.Kind)

	out := ConfirmPaymentIntentResponse{PaymentIntent: after.Public(), NextAction: action}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// paymentIntentStatusHandler godoc
//
//	@Summary		Payment intent status
//	@Description	Current status of the intent. With wait=true the server polls the provider until the status is terminal or the wait window ends; a timed out wait still returns the last status seen.
//	@Tags			payment-intents
//	@Produce		json
//	@Param			intentID			path		string	true	"Payment intent ID"
//	@Param			X-Checkout-Session	header		string	true	"Session token"
//	@Param			wait				query		bool	false	"Poll until terminal"
//	@Success		200					{object}	IntentStatusResponse
//	@Failure		404					{object}	error
//	@Failure		503					{object}	error
//	@Router			/payment_intents/{intentID}/status [get]
func (app *application) paymentIntentStatusHandler(w http.ResponseWriter, r *http.Request) {
	before := getIntentFromContext(r)
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	var (
		in       *payments.Intent
		err      error
		timedOut bool
	)
	if wait {
		in, err = app.statusPoller(before).PollUntilTerminal(r.Context(), before.ID)
		var timeoutErr *payments.TimeoutError
		if errors.As(err, &timeoutErr) {
			timedOut, err = true, nil
			if in == nil {
				in = before
			}
		}
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), providerCallTimeout)
		defer cancel()
		in, err = app.payments.RetrieveStatus(ctx, before.ID)
	}
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	out := IntentStatusResponse{
		PaymentIntent: IntentStatus{ID: in.ID, Status: in.Status, LastError: in.LastError},
		TimedOut:      timedOut,
	}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// statusPoller widens the configured wait for methods with a longer poll
// window, such as receiver flows.
func (app *application) statusPoller(in *payments.Intent) *poller.Poller {
	wait := app.poller.Config().Timeout
	if d, ok := app.registry.Lookup(in.Metadata["method"]); ok && d.PollTimeout > wait {
		wait = d.PollTimeout
	}
	return app.poller.WithTimeout(min(wait, maxStatusWait))
}

// enabledMethods narrows a requested method list to what the store offers.
// An empty request means everything the store offers.
func (app *application) enabledMethods(requested []string) []string {
	configured := app.config.store.paymentMethods
	if len(requested) == 0 {
		return configured
	}
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		id = strings.ToLower(strings.TrimSpace(id))
		if slices.Contains(configured, id) {
			out = append(out, id)
		}
	}
	return out
}
