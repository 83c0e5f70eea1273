package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/methods"
	"storefront/internal/payments"
)

func intent(status payments.Status) *payments.Intent {
	return &payments.Intent{ID: "pi_1", Status: status}
}

func TestCardInlineSuccess(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")

	action, err := a.Select("card")
	require.NoError(t, err)
	assert.Equal(t, ActionCollectDetails, action.Kind)
	assert.Equal(t, StateInlineSubmitting, a.State())

	action, err = a.Resolve(intent(payments.StatusSucceeded))
	require.NoError(t, err)
	assert.Equal(t, ActionDone, action.Kind)
	assert.Equal(t, []State{StateIdle, StateMethodSelected, StateInlineSubmitting, StateSucceeded}, a.History())
}

func TestRedirectFlowThenPolling(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")
	_, err := a.Select("ideal")
	require.NoError(t, err)
	assert.Equal(t, StateRedirecting, a.State())

	in := intent(payments.StatusRequiresAction)
	in.NextAction = &payments.NextAction{Type: "redirect_to_url", RedirectURL: "https://bank.example/auth"}
	action, err := a.Resolve(in)
	require.NoError(t, err)
	assert.Equal(t, ActionRedirect, action.Kind)
	assert.Equal(t, "https://bank.example/auth", action.RedirectURL)
	assert.Equal(t, "ideal", action.Method)

	action, err = a.Resolve(intent(payments.StatusProcessing))
	require.NoError(t, err)
	assert.Equal(t, ActionPoll, action.Kind)
	assert.Equal(t, int64(30000), action.PollTimeoutMs)
	assert.Equal(t, StatePolling, a.State())

	_, err = a.Resolve(intent(payments.StatusSucceeded))
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, a.State())
}

func TestWechatIsReceiverFlow(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")

	action, err := a.Select("wechat")
	require.NoError(t, err)
	assert.Equal(t, ActionDisplayInstructions, action.Kind)
	assert.Equal(t, (5 * time.Minute).Milliseconds(), action.PollTimeoutMs)
	assert.Equal(t, StateAwaitingReceiver, a.State())

	action, err = a.Resolve(intent(payments.StatusRequiresAction))
	require.NoError(t, err)
	assert.Equal(t, ActionPoll, action.Kind)
	assert.Equal(t, StatePolling, a.State())
}

func TestDeclineFailsAndAllowsReselect(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")
	_, err := a.Select("card")
	require.NoError(t, err)

	in := intent(payments.StatusRequiresPaymentMethod)
	in.LastError = "Your card was declined."
	action, err := a.Resolve(in)
	require.NoError(t, err)
	assert.Equal(t, ActionDone, action.Kind)
	assert.Equal(t, "Your card was declined.", action.Message)
	assert.Equal(t, StateFailed, a.State())

	_, err = a.Select("sepa_debit")
	require.NoError(t, err)
	assert.Equal(t, StateInlineSubmitting, a.State())
}

func TestFreshIntentKeepsCollecting(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")
	_, err := a.Select("card")
	require.NoError(t, err)

	action, err := a.Resolve(intent(payments.StatusRequiresPaymentMethod))
	require.NoError(t, err)
	assert.Equal(t, ActionCollectDetails, action.Kind)
	assert.Equal(t, StateInlineSubmitting, a.State())
}

func TestCardAuthentication(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")
	_, err := a.Select("card")
	require.NoError(t, err)

	action, err := a.Resolve(intent(payments.StatusRequiresAction))
	require.NoError(t, err)
	assert.Equal(t, ActionAuthenticate, action.Kind)
}

func TestFinalStateIgnoresLateUpdates(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")
	_, err := a.Select("card")
	require.NoError(t, err)
	done, err := a.Resolve(intent(payments.StatusSucceeded))
	require.NoError(t, err)

	again, err := a.Resolve(intent(payments.StatusProcessing))
	require.NoError(t, err)
	assert.Equal(t, done, again)
	assert.Equal(t, StateSucceeded, a.State())

	_, err = a.Select("card")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestInvalidTransitions(t *testing.T) {
	a := NewAttempt(methods.Default(), "pi_1")

	_, err := a.Resolve(intent(payments.StatusSucceeded))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = a.Select("bitcoin")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = a.Select("card")
	require.NoError(t, err)
	_, err = a.Resolve(&payments.Intent{ID: "pi_other", Status: payments.StatusSucceeded})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
