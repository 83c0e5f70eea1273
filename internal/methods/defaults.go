package methods

import "time"

var asiaPacific = []string{"CN", "HK", "SG", "JP"}

var asiaPacificCurrencies = []string{"aud", "cad", "eur", "gbp", "hkd", "jpy", "nzd", "sgd", "usd"}

var sepaCountries = []string{"FR", "DE", "ES", "BE", "NL", "LU", "IT", "PT", "AT", "IE", "FI"}

// Defaults is the built-in method table in tab order.
//
// wechat shows a QR code and waits for the customer to scan it, so it is
// registered as a receiver flow with a longer poll window even though the
// provider labels its source flow as "none".
func Defaults() []Descriptor {
	return []Descriptor{
		{ID: "ach_credit_transfer", DisplayName: "Bank Transfer", Flow: FlowReceiver, Countries: []string{"US"}, Currencies: []string{"usd"}},
		{ID: "alipay", DisplayName: "Alipay", Flow: FlowRedirect, Countries: asiaPacific, Currencies: asiaPacificCurrencies},
		{ID: "bancontact", DisplayName: "Bancontact", Flow: FlowRedirect, Countries: []string{"BE"}, Currencies: []string{"eur"}},
		{ID: CardID, DisplayName: "Card", Flow: FlowNone},
		{ID: "eps", DisplayName: "EPS", Flow: FlowRedirect, Countries: []string{"AT"}, Currencies: []string{"eur"}},
		{ID: "ideal", DisplayName: "iDEAL", Flow: FlowRedirect, Countries: []string{"NL"}, Currencies: []string{"eur"}},
		{ID: "giropay", DisplayName: "Giropay", Flow: FlowRedirect, Countries: []string{"DE"}, Currencies: []string{"eur"}},
		{ID: "multibanco", DisplayName: "Multibanco", Flow: FlowReceiver, Countries: []string{"PT"}, Currencies: []string{"eur"}},
		{ID: "p24", DisplayName: "Przelewy24", Flow: FlowRedirect, Countries: []string{"PL"}, Currencies: []string{"eur", "pln"}},
		{ID: "sepa_debit", DisplayName: "SEPA Direct Debit", Flow: FlowNone, Countries: sepaCountries, Currencies: []string{"eur"}},
		{ID: "sofort", DisplayName: "SOFORT", Flow: FlowRedirect, Countries: []string{"DE", "AT"}, Currencies: []string{"eur"}},
		{ID: "wechat", DisplayName: "WeChat", Flow: FlowReceiver, Countries: asiaPacific, Currencies: asiaPacificCurrencies, PollTimeout: 5 * time.Minute},
	}
}

// Default builds the registry from Defaults.
func Default() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(err)
	}
	return r
}
