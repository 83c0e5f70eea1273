// Package sandbox is an in-memory payment provider used by tests and by
// PAYMENTS_PROVIDER=sandbox. It honours idempotency keys the way the real
// provider does and can be scripted to walk an intent through statuses.
package sandbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"storefront/internal/inventory"
	"storefront/internal/money"
	"storefront/internal/payments"
)

// DeclinedCard always leaves the intent in requires_payment_method with a
// decline message.
const DeclinedCard = "pm_card_chargeDeclined"

const DeclineMessage = "Your card was declined."

type Provider struct {
	mu       sync.Mutex
	baseURL  string
	seq      int
	intents  map[string]*payments.Intent
	replies  map[string]*payments.Intent
	scripts  map[string][]payments.Status
	failures []error
	products map[string]inventory.Product
	prices   map[string]int64
	calls    int
	mutating int
}

func New() *Provider {
	return &Provider{
		baseURL:  "https://sandbox.invalid",
		intents:  make(map[string]*payments.Intent),
		replies:  make(map[string]*payments.Intent),
		scripts:  make(map[string][]payments.Status),
		products: make(map[string]inventory.Product),
		prices:   make(map[string]int64),
	}
}

// Script queues statuses that successive RetrieveIntent calls will report.
func (p *Provider) Script(id string, statuses ...payments.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[id] = append(p.scripts[id], statuses...)
}

// FailNext makes the next call return err without touching state.
func (p *Provider) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, err)
}

// SetStatus moves an intent as if the provider had processed it out of band.
func (p *Provider) SetStatus(id string, status payments.Status, lastError string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if in, ok := p.intents[id]; ok {
		in.Status = status
		in.LastError = lastError
		in.NextAction = nil
	}
}

// Intent returns a copy of the provider-side intent.
func (p *Provider) Intent(id string) (*payments.Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.intents[id]
	return in.Clone(), ok
}

// Calls counts every request, MutatingCalls only those that changed state.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) MutatingCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutating
}

func (p *Provider) CreateIntent(ctx context.Context, req payments.CreateRequest) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, err, done := p.begin(ctx, req.IdempotencyKey); done {
		return in, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", payments.ErrValidation)
	}
	if !money.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("%w: invalid currency %s", payments.ErrValidation, req.Currency)
	}

	p.seq++
	id := fmt.Sprintf("pi_sandbox_%d", p.seq)
	in := &payments.Intent{
		ID:           id,
		ClientSecret: payments.ClientSecret(fmt.Sprintf("%s_secret_%06d", id, p.seq*7919%1000000)),
		Status:       payments.StatusRequiresPaymentMethod,
		Amount:       req.Amount,
		Currency:     strings.ToLower(req.Currency),
		ReceiptEmail: req.ReceiptEmail,
		Metadata:     req.Metadata,
	}
	p.intents[id] = in
	p.mutating++
	return p.reply(req.IdempotencyKey, in), nil
}

func (p *Provider) UpdateIntent(ctx context.Context, id string, req payments.UpdateRequest) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, err, done := p.begin(ctx, req.IdempotencyKey); done {
		return in, err
	}
	in, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	if in.Status.Resolved() || in.Status == payments.StatusRequiresCapture {
		return nil, fmt.Errorf("%w: intent %s is %s", payments.ErrRejected, id, in.Status)
	}
	if req.Currency != "" && !money.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("%w: invalid currency %s", payments.ErrValidation, req.Currency)
	}

	if req.Amount > 0 {
		in.Amount = req.Amount
	}
	if req.Currency != "" {
		in.Currency = strings.ToLower(req.Currency)
	}
	p.mutating++
	return p.reply(req.IdempotencyKey, in), nil
}

func (p *Provider) ConfirmIntent(ctx context.Context, id string, req payments.ConfirmRequest) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, err, done := p.begin(ctx, req.IdempotencyKey); done {
		return in, err
	}
	in, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	if !in.Status.Confirmable() {
		return nil, fmt.Errorf("%w: intent %s is %s", payments.ErrRejected, id, in.Status)
	}

	switch {
	case req.PaymentMethod == DeclinedCard:
		in.Status = payments.StatusRequiresPaymentMethod
		in.LastError = DeclineMessage
		in.NextAction = nil
	case req.ReturnURL != "":
		in.Status = payments.StatusRequiresAction
		in.LastError = ""
		in.NextAction = &payments.NextAction{
			Type:        "redirect_to_url",
			RedirectURL: p.baseURL + "/redirect/" + id + "?return_url=" + url.QueryEscape(req.ReturnURL),
		}
	default:
		in.Status = payments.StatusSucceeded
		in.LastError = ""
		in.NextAction = nil
	}
	p.mutating++
	return p.reply(req.IdempotencyKey, in), nil
}

func (p *Provider) RetrieveIntent(ctx context.Context, id string) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, err, done := p.begin(ctx, ""); done {
		return in, err
	}
	in, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	if script := p.scripts[id]; len(script) > 0 {
		in.Status = script[0]
		p.scripts[id] = script[1:]
	}
	return in.Clone(), nil
}

func (p *Provider) CancelIntent(ctx context.Context, id string, idempotencyKey string) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in, err, done := p.begin(ctx, idempotencyKey); done {
		return in, err
	}
	in, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	if in.Status.Resolved() {
		return nil, fmt.Errorf("%w: intent %s is %s", payments.ErrRejected, id, in.Status)
	}

	in.Status = payments.StatusCanceled
	in.NextAction = nil
	p.mutating++
	return p.reply(idempotencyKey, in), nil
}

// ProductExists, PublishProduct and PublishSKU let the catalog seeder run
// against the sandbox.
func (p *Provider) ProductExists(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.products[id]
	return ok, ctx.Err()
}

func (p *Provider) PublishProduct(ctx context.Context, product inventory.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.products[product.ID] = product
	return ctx.Err()
}

func (p *Provider) PublishSKU(ctx context.Context, sku inventory.SKU, currency string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[sku.ID+":"+strings.ToLower(currency)] = sku.Price
	return ctx.Err()
}

// begin counts the call and answers it from a queued failure or the
// idempotency cache when possible. Callers hold p.mu.
func (p *Provider) begin(ctx context.Context, key string) (*payments.Intent, error, bool) {
	p.calls++
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrTransient, err), true
	}
	if len(p.failures) > 0 {
		err := p.failures[0]
		p.failures = p.failures[1:]
		return nil, err, true
	}
	if key != "" {
		if in, ok := p.replies[key]; ok {
			return in.Clone(), nil, true
		}
	}
	return nil, nil, false
}

func (p *Provider) reply(key string, in *payments.Intent) *payments.Intent {
	if key != "" {
		p.replies[key] = in.Clone()
	}
	return in.Clone()
}

func (p *Provider) lookup(id string) (*payments.Intent, error) {
	in, ok := p.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payments.ErrNotFound, id)
	}
	return in, nil
}
