package webhooks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"storefront/internal/payments"
	"storefront/internal/payments/sandbox"
	"storefront/internal/store"
)

const testSecret = "whsec_test_storefront"

type recordingPublisher struct {
	mu        sync.Mutex
	published []*payments.Intent
}

// Publish keeps resolved outcomes only, the ones a receipt or counter reacts to.
func (r *recordingPublisher) Publish(in *payments.Intent) bool {
	if !in.Status.Resolved() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, in)
	return true
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

type fixture struct {
	processor *Processor
	client    *payments.Client
	provider  *sandbox.Provider
	store     *store.Memory
	published *recordingPublisher
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	provider := sandbox.New()
	st := store.NewMemory()
	pub := &recordingPublisher{}
	client := payments.NewClient(provider, st, payments.WithNotifier(pub))
	return &fixture{
		processor: NewProcessor(client, st, secret, nil, nil),
		client:    client,
		provider:  provider,
		store:     st,
		published: pub,
	}
}

func (f *fixture) intent(t *testing.T) *payments.Intent {
	t.Helper()
	in, err := f.client.CreateIntent(context.Background(), payments.CreateInput{
		SessionID: "s1",
		Amount:    1099,
		Currency:  "eur",
		Methods:   []string{"card", "sofort"},
	})
	require.NoError(t, err)
	return in
}

func eventJSON(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"api_version":%q,"created":1717243200,"data":{"object":%s}}`,
		id, eventType, stripe.APIVersion, object))
}

func intentObject(id string, status payments.Status) string {
	return fmt.Sprintf(`{"id":%q,"object":"payment_intent","status":%q,"amount":1099,"currency":"eur"}`, id, status)
}

func sourceObject(id, status, intentID string) string {
	return fmt.Sprintf(`{"id":%q,"object":"source","type":"sofort","status":%q,"metadata":{"paymentIntent":%q}}`, id, status, intentID)
}

func (f *fixture) deliver(t *testing.T, payload []byte) (Result, error) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	event, err := f.processor.Parse(signed.Payload, signed.Header)
	require.NoError(t, err)
	return f.processor.Handle(context.Background(), event)
}

func TestParseRejectsBadSignature(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)

	payload := eventJSON("evt_1", "payment_intent.succeeded", intentObject(in.ID, payments.StatusSucceeded))
	_, err := f.processor.Parse(payload, "t=1234567890,v1=invalidsignaturevalue")
	assert.ErrorIs(t, err, payments.ErrIntegrity)

	_, err = f.processor.Parse(payload, "")
	assert.ErrorIs(t, err, payments.ErrIntegrity)

	stored, err := f.store.Intent(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusRequiresPaymentMethod, stored.Status)
}

func TestPaymentIntentSucceeded(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)

	result, err := f.deliver(t, eventJSON("evt_1", "payment_intent.succeeded", intentObject(in.ID, payments.StatusSucceeded)))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)

	stored, err := f.store.Intent(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusSucceeded, stored.Status)
	assert.Equal(t, 1, f.published.count())
}

func TestDuplicateDeliveryIsAcknowledged(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)
	payload := eventJSON("evt_1", "payment_intent.succeeded", intentObject(in.ID, payments.StatusSucceeded))

	_, err := f.deliver(t, payload)
	require.NoError(t, err)
	result, err := f.deliver(t, payload)
	require.NoError(t, err)

	assert.Equal(t, ResultDuplicate, result)
	assert.Equal(t, 1, f.published.count())
}

func TestLateProcessingAfterSucceededIsIgnored(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)

	_, err := f.deliver(t, eventJSON("evt_2", "payment_intent.succeeded", intentObject(in.ID, payments.StatusSucceeded)))
	require.NoError(t, err)
	result, err := f.deliver(t, eventJSON("evt_1", "payment_intent.processing", intentObject(in.ID, payments.StatusProcessing)))
	require.NoError(t, err)

	assert.Equal(t, ResultIgnored, result)
	stored, err := f.store.Intent(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusSucceeded, stored.Status)
}

func TestSourceChargeableConfirmsOnce(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)

	result, err := f.deliver(t, eventJSON("evt_1", "source.chargeable", sourceObject("src_1", "chargeable", in.ID)))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)

	remote, ok := f.provider.Intent(in.ID)
	require.True(t, ok)
	assert.Equal(t, payments.StatusSucceeded, remote.Status)
	mutating := f.provider.MutatingCalls()

	// a second chargeable notification for an already resolved intent
	result, err = f.deliver(t, eventJSON("evt_2", "source.chargeable", sourceObject("src_1", "chargeable", in.ID)))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
	assert.Equal(t, mutating, f.provider.MutatingCalls())
	assert.Equal(t, 1, f.published.count())
}

func TestSourceFailedCancelsIntent(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)

	result, err := f.deliver(t, eventJSON("evt_1", "source.failed", sourceObject("src_1", "failed", in.ID)))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)

	stored, err := f.store.Intent(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusCanceled, stored.Status)
}

func TestSourceWithoutIntentIsIgnored(t *testing.T) {
	f := newFixture(t, testSecret)

	result, err := f.deliver(t, eventJSON("evt_1", "source.chargeable", `{"id":"src_1","object":"source","status":"chargeable","metadata":{}}`))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
}

func TestFailedHandlingIsNotRecorded(t *testing.T) {
	f := newFixture(t, testSecret)
	in := f.intent(t)
	payload := eventJSON("evt_1", "source.chargeable", sourceObject("src_1", "chargeable", in.ID))

	f.provider.FailNext(fmt.Errorf("%w: 503", payments.ErrTransient))
	_, err := f.deliver(t, payload)
	assert.ErrorIs(t, err, payments.ErrTransient)

	result, err := f.deliver(t, payload)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)
}

func TestUnsignedModeForDevelopment(t *testing.T) {
	f := newFixture(t, "")
	in := f.intent(t)
	assert.False(t, f.processor.Verifies())

	event, err := f.processor.Parse(eventJSON("evt_1", "payment_intent.canceled", intentObject(in.ID, payments.StatusCanceled)), "")
	require.NoError(t, err)
	result, err := f.processor.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)
}
