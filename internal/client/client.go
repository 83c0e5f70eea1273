// Package client talks to the storefront HTTP API. storefrontctl uses it,
// and it satisfies poller.Source so status polling runs client side too.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"storefront/internal/checkout"
	"storefront/internal/inventory"
	"storefront/internal/methods"
	"storefront/internal/payments"
)

const SessionHeader = "X-Checkout-Session"

type Config struct {
	PublishableKey  string                     `json:"publishableKey"`
	AccountCountry  string                     `json:"accountCountry"`
	DefaultCountry  string                     `json:"defaultCountry"`
	Currency        string                     `json:"currency"`
	PaymentMethods  []string                   `json:"paymentMethods"`
	ShippingOptions []inventory.ShippingOption `json:"shippingOptions"`
}

type PaymentMethods struct {
	PaymentMethods []methods.Descriptor `json:"paymentMethods"`
	Count          int                  `json:"count"`
	ShowTabs       bool                 `json:"showTabs"`
	ButtonLabels   map[string]string    `json:"buttonLabels,omitempty"`
}

type CreateIntentRequest struct {
	Currency string           `json:"currency"`
	Items    []inventory.Item `json:"items"`
	Email    string           `json:"email,omitempty"`
}

type CreateIntentResponse struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
	SessionToken  string           `json:"sessionToken"`
	OrderNumber   string           `json:"orderNumber"`
}

type ConfirmRequest struct {
	PaymentMethod   string `json:"paymentMethod"`
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
	Source          string `json:"source,omitempty"`
	ReturnURL       string `json:"returnUrl,omitempty"`
}

type ConfirmResponse struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
	NextAction    checkout.Action  `json:"nextAction"`
}

type IntentStatus struct {
	ID        string          `json:"id"`
	Status    payments.Status `json:"status"`
	LastError string          `json:"last_payment_error,omitempty"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	http         *resty.Client
	sessionToken string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		c.http = resty.NewWithClient(hc).SetBaseURL(base)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session is the token returned by CreatePaymentIntent. It is sent back on
// later calls so the server reuses the same intent.
func (c *Client) Session() string         { return c.sessionToken }
func (c *Client) SetSession(token string) { c.sessionToken = token }

func (c *Client) Config(ctx context.Context) (*Config, error) {
	var out envelope[Config]
	if err := c.do(ctx, http.MethodGet, "/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) PaymentMethods(ctx context.Context, country, currency string, amount int64) (*PaymentMethods, error) {
	query := map[string]string{"country": country}
	if currency != "" {
		query["currency"] = currency
	}
	if amount > 0 {
		query["amount"] = fmt.Sprint(amount)
	}
	var out envelope[PaymentMethods]
	if err := c.do(ctx, http.MethodGet, "/payment_methods", query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResponse, error) {
	var out envelope[CreateIntentResponse]
	if err := c.do(ctx, http.MethodPost, "/payment_intents", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Data.SessionToken != "" {
		c.sessionToken = out.Data.SessionToken
	}
	return &out.Data, nil
}

func (c *Client) Confirm(ctx context.Context, id string, req ConfirmRequest) (*ConfirmResponse, error) {
	var out envelope[ConfirmResponse]
	if err := c.do(ctx, http.MethodPost, "/payment_intents/"+id+"/confirm", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// RetrieveStatus returns the status view of an intent.
func (c *Client) RetrieveStatus(ctx context.Context, id string) (*payments.Intent, error) {
	var out envelope[struct {
		PaymentIntent IntentStatus `json:"paymentIntent"`
	}]
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+id+"/status", nil, nil, &out); err != nil {
		return nil, err
	}
	st := out.Data.PaymentIntent
	if st.ID == "" {
		st.ID = id
	}
	return &payments.Intent{ID: st.ID, Status: st.Status, LastError: st.LastError}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errorBody{})
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if c.sessionToken != "" {
		req.SetHeader(SessionHeader, c.sessionToken)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", payments.ErrTransient, method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := http.StatusText(resp.StatusCode())
	if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
		msg = e.Error
	}
	return fmt.Errorf("%w: %s", kindFor(resp.StatusCode()), msg)
}

func kindFor(status int) error {
	switch {
	case status == http.StatusNotFound:
		return payments.ErrNotFound
	case status == http.StatusForbidden || status == http.StatusConflict:
		return payments.ErrRejected
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return payments.ErrTransient
	default:
		return payments.ErrValidation
	}
}
