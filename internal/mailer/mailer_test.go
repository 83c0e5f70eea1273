package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReceipt(t *testing.T) {
	msg, err := Render(ReceiptTemplate, map[string]string{
		"StoreName":   "Storefront",
		"OrderNumber": "STR-8XK2P9QD",
		"Amount":      "24.99 EUR",
		"Method":      "card",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your Storefront order STR-8XK2P9QD", msg.Subject)
	assert.Contains(t, msg.Plain, "Amount paid: 24.99 EUR")
	assert.Contains(t, msg.HTML, "<td>STR-8XK2P9QD</td>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestNoopRenders(t *testing.T) {
	assert.NoError(t, Noop{}.Send(ReceiptTemplate, "Ana", "ana@example.com", map[string]string{}))
}
