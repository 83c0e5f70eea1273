package main

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/inventory"
	"storefront/internal/methods"
	"storefront/internal/money"
)

type ConfigResponse struct {
	PublishableKey  string                     `json:"publishableKey"`
	AccountCountry  string                     `json:"accountCountry"`
	DefaultCountry  string                     `json:"defaultCountry"`
	Currency        string                     `json:"currency"`
	PaymentMethods  []string                   `json:"paymentMethods"`
	ShippingOptions []inventory.ShippingOption `json:"shippingOptions"`
}

type PaymentMethodsResponse struct {
	PaymentMethods []methods.Descriptor `json:"paymentMethods"`
	Count          int                  `json:"count"`
	ShowTabs       bool                 `json:"showTabs"`
	ButtonLabels   map[string]string    `json:"buttonLabels,omitempty"`
}

// getConfigHandler godoc
//
//	@Summary		Storefront configuration
//	@Description	Publishable key, store region and currency, the payment methods the store offers and the shipping options.
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	ConfigResponse
//	@Router			/config [get]
func (app *application) getConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg := app.config
	out := ConfigResponse{
		PublishableKey:  cfg.stripe.publishableKey,
		AccountCountry:  cfg.stripe.accountCountry,
		DefaultCountry:  cfg.store.country,
		Currency:        cfg.store.currency,
		PaymentMethods:  app.registry.SupportedFor(cfg.store.currency, cfg.store.paymentMethods),
		ShippingOptions: app.catalog.ShippingOptions(),
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPaymentMethodsHandler godoc
//
//	@Summary		Eligible payment methods
//	@Description	Methods to offer a customer in a country paying in a currency, in display order. Card is always included.
//	@Tags			checkout
//	@Produce		json
//	@Param			country		query		string	true	"ISO 3166 alpha-2 country"
//	@Param			currency	query		string	false	"ISO 4217 currency, defaults to the store currency"
//	@Param			amount		query		int		false	"Amount in minor units, adds pay button labels"
//	@Success		200			{object}	PaymentMethodsResponse
//	@Failure		400			{object}	error
//	@Router			/payment_methods [get]
func (app *application) getPaymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := strings.ToUpper(strings.TrimSpace(q.Get("country")))
	currency := strings.ToLower(strings.TrimSpace(q.Get("currency")))
	if currency == "" {
		currency = app.config.store.currency
	}

	if err := Validate.Var(country, "required,region"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Var(currency, "currency"); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	selection := app.registry.Eligible(country, currency, app.config.store.paymentMethods)
	out := PaymentMethodsResponse{
		PaymentMethods: selection.Methods(),
		Count:          selection.Count(),
		ShowTabs:       selection.ShowTabs(),
	}

	if raw := q.Get("amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount <= 0 {
			app.badRequestResponse(w, r, errInvalidAmount)
			return
		}
		formatted := money.Format(amount, currency)
		out.ButtonLabels = make(map[string]string, out.Count)
		for _, d := range out.PaymentMethods {
			out.ButtonLabels[d.ID] = methods.ButtonLabel(d, formatted)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
