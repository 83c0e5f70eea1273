package methods

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allIDs(r *Registry) []string {
	ids := make([]string, 0, r.Len())
	for _, d := range r.All() {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestRegistryPreservesOrder(t *testing.T) {
	r := Default()

	ids := allIDs(r)
	require.Len(t, ids, 12)
	assert.Equal(t, "ach_credit_transfer", ids[0])
	assert.Equal(t, CardID, ids[3])
	assert.Equal(t, "wechat", ids[len(ids)-1])
}

func TestRegistryLookup(t *testing.T) {
	r := Default()

	d, ok := r.Lookup(" iDEAL ")
	require.True(t, ok)
	assert.Equal(t, "ideal", d.ID)
	assert.Equal(t, FlowRedirect, d.Flow)

	_, ok = r.Lookup("klarna")
	assert.False(t, ok)
}

func TestRegistryRejectsBadTables(t *testing.T) {
	_, err := NewRegistry(Descriptor{ID: "ideal"})
	assert.ErrorIs(t, err, ErrMissingCard)

	_, err = NewRegistry(Descriptor{ID: "card"}, Descriptor{ID: "CARD"})
	assert.ErrorIs(t, err, ErrDuplicateMethod)
}

func TestRegistryIsReadOnly(t *testing.T) {
	r := Default()

	d, _ := r.Lookup("sofort")
	d.Countries[0] = "FR"

	again, _ := r.Lookup("sofort")
	assert.Equal(t, "DE", again.Countries[0])
}

func TestWechatPollsAsReceiver(t *testing.T) {
	d, ok := Default().Lookup("wechat")
	require.True(t, ok)

	assert.Equal(t, FlowReceiver, d.Flow)
	assert.Greater(t, d.Timeout(), DefaultPollTimeout)
}

func TestEligibleFrance(t *testing.T) {
	r := Default()

	sel := r.Eligible("FR", "eur", allIDs(r))

	assert.True(t, sel.Contains(CardID))
	assert.True(t, sel.Contains("sepa_debit"))
	assert.False(t, sel.Contains("bancontact"))
	assert.False(t, sel.Contains("giropay"))
	assert.False(t, sel.Contains("sofort"))
	assert.True(t, sel.ShowTabs())
}

func TestEligibleUnknownCountryOnlyCard(t *testing.T) {
	r := Default()

	sel := r.Eligible("ZZ", "eur", allIDs(r))

	assert.Equal(t, []string{CardID}, sel.IDs())
	assert.Equal(t, 1, sel.Count())
	assert.False(t, sel.ShowTabs())
}

func TestEligibleRespectsConfiguredMethods(t *testing.T) {
	r := Default()

	sel := r.Eligible("DE", "eur", []string{"sofort"})

	assert.Equal(t, []string{CardID, "sofort"}, sel.IDs())
}

func TestEligibleIsCaseInsensitive(t *testing.T) {
	r := Default()

	sel := r.Eligible("be", "EUR", []string{"Bancontact"})

	assert.Equal(t, []string{"bancontact", CardID}, sel.IDs())
}

func TestEligibleProperty(t *testing.T) {
	r := Default()
	configured := allIDs(r)
	faker := gofakeit.New(20240611)

	var tableCountries []string
	for _, d := range r.All() {
		tableCountries = append(tableCountries, d.Countries...)
	}
	currencies := []string{"eur", "usd", "pln", "jpy", "gbp", "chf"}

	for i := 0; i < 500; i++ {
		country := faker.CountryAbr()
		if i%2 == 0 {
			country = tableCountries[faker.Number(0, len(tableCountries)-1)]
		}
		currency := strings.ToLower(faker.CurrencyShort())
		if i%3 == 0 {
			currency = currencies[faker.Number(0, len(currencies)-1)]
		}

		sel := r.Eligible(country, currency, configured)
		require.True(t, sel.Contains(CardID), "card missing for %s/%s", country, currency)

		// registry order is preserved and every entry is justified
		pos := -1
		for _, d := range sel.Methods() {
			next := indexOf(configured, d.ID)
			require.Greater(t, next, pos)
			pos = next
		}

		for _, d := range r.All() {
			if d.ID == CardID {
				continue
			}
			want := d.AcceptsCountry(country) && d.AcceptsCurrency(currency)
			assert.Equal(t, want, sel.Contains(d.ID), "%s for %s/%s", d.ID, country, currency)
		}
	}
}

func TestSupportedForCurrency(t *testing.T) {
	r := Default()

	ids := r.SupportedFor("eur", allIDs(r))

	assert.Contains(t, ids, CardID)
	assert.Contains(t, ids, "ideal")
	assert.NotContains(t, ids, "ach_credit_transfer")
}

func TestButtonLabel(t *testing.T) {
	r := Default()
	card, _ := r.Lookup("card")
	ideal, _ := r.Lookup("ideal")
	wechat, _ := r.Lookup("wechat")

	assert.Equal(t, "Pay 24.99 EUR", ButtonLabel(card, "24.99 EUR"))
	assert.Equal(t, "Pay 24.99 EUR with iDEAL", ButtonLabel(ideal, "24.99 EUR"))
	assert.Equal(t, "Generate QR code to pay 24.99 EUR with WeChat", ButtonLabel(wechat, "24.99 EUR"))
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
