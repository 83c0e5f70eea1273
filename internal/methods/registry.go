package methods

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Flow describes how a payment method completes once the customer picks it.
type Flow string

const (
	FlowNone     Flow = "none"     // instrument collected inline, confirmed directly
	FlowRedirect Flow = "redirect" // browser leaves the store and comes back
	FlowReceiver Flow = "receiver" // out-of-band instructions, then polling
)

// CardID is the only method without country or currency restrictions.
const CardID = "card"

// DefaultPollTimeout bounds status polling for methods that do not set their own.
const DefaultPollTimeout = 30 * time.Second

var (
	ErrDuplicateMethod = errors.New("duplicate payment method")
	ErrMissingCard     = errors.New("registry must contain the card method")
)

type Descriptor struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"name"`
	Flow        Flow          `json:"flow"`
	Countries   []string      `json:"countries,omitempty"`
	Currencies  []string      `json:"currencies,omitempty"`
	PollTimeout time.Duration `json:"-"`
}

func (d Descriptor) AcceptsCountry(country string) bool {
	return containsFold(d.Countries, country)
}

func (d Descriptor) AcceptsCurrency(currency string) bool {
	return containsFold(d.Currencies, currency)
}

// Timeout returns how long a status poll for this method may run.
func (d Descriptor) Timeout() time.Duration {
	if d.PollTimeout > 0 {
		return d.PollTimeout
	}
	return DefaultPollTimeout
}

func (d Descriptor) clone() Descriptor {
	d.Countries = slices.Clone(d.Countries)
	d.Currencies = slices.Clone(d.Currencies)
	return d
}

// Registry is the ordered, read-only table of supported payment methods.
// Order is preserved from construction and decides the on-screen tab order.
type Registry struct {
	order []Descriptor
	index map[string]int
}

func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		order: make([]Descriptor, 0, len(descriptors)),
		index: make(map[string]int, len(descriptors)),
	}

	for _, d := range descriptors {
		id := strings.ToLower(strings.TrimSpace(d.ID))
		if id == "" {
			return nil, fmt.Errorf("payment method without id (%q)", d.DisplayName)
		}
		if _, ok := r.index[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMethod, id)
		}
		d.ID = id
		r.index[id] = len(r.order)
		r.order = append(r.order, d.clone())
	}

	if _, ok := r.index[CardID]; !ok {
		return nil, ErrMissingCard
	}

	return r, nil
}

func (r *Registry) Lookup(id string) (Descriptor, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Descriptor{}, false
	}
	return r.order[i].clone(), true
}

// All returns every descriptor in registry order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.order))
	for i, d := range r.order {
		out[i] = d.clone()
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// SupportedFor returns the ids from configured that can be offered to the
// provider for an intent in currency. Card is always part of the result.
func (r *Registry) SupportedFor(currency string, configured []string) []string {
	enabled := enabledSet(configured)

	out := make([]string, 0, len(r.order))
	for _, d := range r.order {
		if d.ID == CardID {
			out = append(out, d.ID)
			continue
		}
		if enabled[d.ID] && d.AcceptsCurrency(currency) {
			out = append(out, d.ID)
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func enabledSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[strings.ToLower(strings.TrimSpace(id))] = true
	}
	return set
}
