package methods

import "fmt"

// Selection is the ordered result of an eligibility check.
type Selection struct {
	methods []Descriptor
}

func (s Selection) Methods() []Descriptor {
	out := make([]Descriptor, len(s.methods))
	for i, d := range s.methods {
		out[i] = d.clone()
	}
	return out
}

func (s Selection) IDs() []string {
	ids := make([]string, len(s.methods))
	for i, d := range s.methods {
		ids[i] = d.ID
	}
	return ids
}

func (s Selection) Count() int {
	return len(s.methods)
}

// ShowTabs reports whether the checkout should render method tabs.
// A selection holding only card hides them.
func (s Selection) ShowTabs() bool {
	return s.Count() > 1
}

func (s Selection) Contains(id string) bool {
	for _, d := range s.methods {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Eligible returns the methods to offer a customer in country paying in
// currency. Card is always present; every other method must be configured and
// accept both the country and the currency.
func (r *Registry) Eligible(country, currency string, configured []string) Selection {
	enabled := enabledSet(configured)

	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.order {
		if d.ID == CardID {
			out = append(out, d)
			continue
		}
		if enabled[d.ID] && d.AcceptsCountry(country) && d.AcceptsCurrency(currency) {
			out = append(out, d)
		}
	}

	return Selection{methods: out}
}

// ButtonLabel is the call to action shown on the pay button for d.
func ButtonLabel(d Descriptor, amount string) string {
	switch d.ID {
	case CardID:
		return fmt.Sprintf("Pay %s", amount)
	case "wechat":
		return fmt.Sprintf("Generate QR code to pay %s with %s", amount, d.DisplayName)
	default:
		return fmt.Sprintf("Pay %s with %s", amount, d.DisplayName)
	}
}
