package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/client"
	"storefront/internal/inventory"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

type fakeAPI struct {
	statusCalls atomic.Int32
	created     atomic.Pointer[inventory.Item]
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{}

	r := chi.NewRouter()
	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{
			"currency":        "eur",
			"defaultCountry":  "FR",
			"accountCountry":  "FR",
			"paymentMethods":  []string{"card", "ideal"},
			"shippingOptions": []map[string]any{{"id": "free", "label": "Free Shipping", "amount": 0}},
		})
	})
	r.Post("/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		var body client.CreateIntentRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Items) > 0 {
			api.created.Store(&body.Items[0])
		}
		writeData(w, http.StatusCreated, map[string]any{
			"paymentIntent": map[string]any{"id": "pi_1", "status": "requires_payment_method", "amount": 798, "currency": "eur"},
			"sessionToken":  "tok_1",
			"orderNumber":   "STR-1",
		})
	})
	r.Post("/payment_intents/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{
			"paymentIntent": map[string]any{"id": "pi_1", "status": "requires_action"},
			"nextAction":    map[string]any{"type": "poll", "method": "card", "pollTimeoutMs": 2000},
		})
	})
	r.Get("/payment_intents/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(client.SessionHeader) != "tok_1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		id := chi.URLParam(r, "id")
		status := "requires_action"
		if id == "pi_1" && api.statusCalls.Add(1) >= 3 {
			status = "succeeded"
		}
		writeData(w, http.StatusOK, map[string]any{"paymentIntent": map[string]any{"id": id, "status": status}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api, srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"increment-03=2", " pins-collector "})
	require.NoError(t, err)
	assert.Equal(t, []inventory.Item{
		{Parent: "increment-03", Quantity: 2},
		{Parent: "pins-collector", Quantity: 1},
	}, items)

	for _, bad := range []string{"=2", "shirt=0", "shirt=two"} {
		_, err := parseItems([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestConfigCommand(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, err := execute(t, "--server", srv.URL, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "EUR")
	assert.Contains(t, out, "card, ideal")
	assert.Contains(t, out, "Free Shipping (0.00 EUR)")
}

func TestCheckoutWaitsForOutcome(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, err := execute(t, "--server", srv.URL, "checkout",
		"--item", "increment-03=2", "--method", "card", "--payment-method-id", "pm_card_visa",
		"--wait", "--wait-timeout", "10s")
	require.NoError(t, err)

	require.NotNil(t, api.created.Load())
	assert.Equal(t, inventory.Item{Parent: "increment-03", Quantity: 2}, *api.created.Load())
	assert.Contains(t, out, "Order STR-1: intent pi_1 for 7.98 EUR")
	assert.Contains(t, out, "Session: tok_1")
	assert.Contains(t, out, "pi_1: succeeded")
}

func TestStatusRequiresSession(t *testing.T) {
	_, srv := newFakeAPI(t)

	_, err := execute(t, "--server", srv.URL, "status", "pi_1")
	assert.ErrorContains(t, err, "--session")
}

func TestStatusWait(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, err := execute(t, "--server", srv.URL, "--session", "tok_1", "--json",
		"status", "pi_1", "--wait", "--interval", "10ms")
	require.NoError(t, err)

	var body struct {
		PaymentIntent struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"paymentIntent"`
		TimedOut bool `json:"timedOut"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "pi_1", body.PaymentIntent.ID)
	assert.Equal(t, "succeeded", body.PaymentIntent.Status)
	assert.False(t, body.TimedOut)
	assert.EqualValues(t, 3, api.statusCalls.Load())
}

func TestStatusWaitTimesOutWithLastState(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, err := execute(t, "--server", srv.URL, "--session", "tok_1",
		"status", "pi_slow", "--wait", "--interval", "20ms", "--timeout", "50ms")
	require.NoError(t, err)
	assert.Contains(t, out, "pi_slow: requires_action")
	assert.Contains(t, out, "Still waiting")
}
