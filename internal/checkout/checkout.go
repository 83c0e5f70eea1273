// Package checkout tracks one payment attempt from method selection to a
// final outcome and tells the caller what to do next.
package checkout

import (
	"errors"
	"fmt"
	"slices"

	"storefront/internal/methods"
	"storefront/internal/payments"
)

type State string

const (
	StateIdle             State = "idle"
	StateMethodSelected   State = "method_selected"
	StateInlineSubmitting State = "inline_submitting"
	StateRedirecting      State = "redirecting"
	StateAwaitingReceiver State = "awaiting_receiver"
	StatePolling          State = "polling"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
	StateCanceled         State = "canceled"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

type ActionKind string

const (
	ActionCollectDetails      ActionKind = "collect_details"
	ActionRedirect            ActionKind = "redirect"
	ActionDisplayInstructions ActionKind = "display_instructions"
	ActionPoll                ActionKind = "poll"
	ActionAuthenticate        ActionKind = "authenticate"
	ActionDone                ActionKind = "done"
)

// Action is what the client should do next.
type Action struct {
	Kind          ActionKind      `json:"type"`
	Method        string          `json:"method,omitempty"`
	RedirectURL   string          `json:"redirectUrl,omitempty"`
	PollTimeoutMs int64           `json:"pollTimeoutMs,omitempty"`
	Status        payments.Status `json:"status,omitempty"`
	Message       string          `json:"message,omitempty"`
}

var (
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrUnknownMethod     = errors.New("unknown payment method")
)

// Attempt is not safe for concurrent use; each checkout session drives its own.
type Attempt struct {
	registry *methods.Registry
	intentID string
	method   methods.Descriptor
	state    State
	last     Action
	history  []State
}

func NewAttempt(registry *methods.Registry, intentID string) *Attempt {
	return &Attempt{
		registry: registry,
		intentID: intentID,
		state:    StateIdle,
		history:  []State{StateIdle},
	}
}

func (a *Attempt) IntentID() string           { return a.intentID }
func (a *Attempt) State() State               { return a.state }
func (a *Attempt) Method() methods.Descriptor { return a.method }
func (a *Attempt) History() []State           { return slices.Clone(a.history) }

// Select picks the payment method and moves into the flow its descriptor
// names. A method can be re-selected before submission or after a failure.
func (a *Attempt) Select(methodID string) (Action, error) {
	switch a.state {
	case StateIdle, StateMethodSelected, StateInlineSubmitting, StateRedirecting, StateFailed:
	default:
		return Action{}, fmt.Errorf("%w: select from %s", ErrInvalidTransition, a.state)
	}

	d, ok := a.registry.Lookup(methodID)
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownMethod, methodID)
	}
	a.method = d
	a.move(StateMethodSelected)

	switch d.Flow {
	case methods.FlowReceiver:
		a.move(StateAwaitingReceiver)
		return a.act(Action{Kind: ActionDisplayInstructions, PollTimeoutMs: a.pollTimeoutMs()}), nil
	case methods.FlowRedirect:
		a.move(StateRedirecting)
	default:
		a.move(StateInlineSubmitting)
	}
	return a.act(Action{Kind: ActionCollectDetails}), nil
}

// Resolve maps the provider state of the intent onto the attempt. Once the
// attempt is final, later states are ignored and the final action repeats.
func (a *Attempt) Resolve(in *payments.Intent) (Action, error) {
	if a.state.Terminal() && a.state != StateFailed {
		return a.last, nil
	}
	switch a.state {
	case StateIdle, StateMethodSelected:
		return Action{}, fmt.Errorf("%w: resolve from %s", ErrInvalidTransition, a.state)
	}
	if in == nil || in.ID != a.intentID {
		return Action{}, fmt.Errorf("%w: intent does not belong to this attempt", ErrInvalidTransition)
	}

	switch in.Status {
	case payments.StatusSucceeded, payments.StatusRequiresCapture:
		a.move(StateSucceeded)
		return a.act(Action{Kind: ActionDone, Status: in.Status}), nil

	case payments.StatusCanceled:
		a.move(StateCanceled)
		return a.act(Action{Kind: ActionDone, Status: in.Status, Message: "The payment was canceled."}), nil

	case payments.StatusFailed:
		a.move(StateFailed)
		return a.act(Action{Kind: ActionDone, Status: in.Status, Message: failureMessage(in)}), nil

	case payments.StatusRequiresPaymentMethod:
		if in.LastError != "" {
			a.move(StateFailed)
			return a.act(Action{Kind: ActionDone, Status: in.Status, Message: in.LastError}), nil
		}
		if a.state == StateAwaitingReceiver || a.state == StatePolling {
			a.move(StatePolling)
			return a.act(Action{Kind: ActionPoll, Status: in.Status, PollTimeoutMs: a.pollTimeoutMs()}), nil
		}
		return a.act(Action{Kind: ActionCollectDetails, Status: in.Status}), nil

	case payments.StatusRequiresConfirmation:
		return a.act(Action{Kind: ActionCollectDetails, Status: in.Status}), nil

	case payments.StatusRequiresAction:
		if in.NextAction != nil && in.NextAction.RedirectURL != "" {
			a.move(StateRedirecting)
			return a.act(Action{Kind: ActionRedirect, Status: in.Status, RedirectURL: in.NextAction.RedirectURL}), nil
		}
		if a.method.Flow == methods.FlowReceiver {
			a.move(StatePolling)
			return a.act(Action{Kind: ActionPoll, Status: in.Status, PollTimeoutMs: a.pollTimeoutMs()}), nil
		}
		return a.act(Action{Kind: ActionAuthenticate, Status: in.Status}), nil

	case payments.StatusProcessing:
		a.move(StatePolling)
		return a.act(Action{Kind: ActionPoll, Status: in.Status, PollTimeoutMs: a.pollTimeoutMs()}), nil
	}

	return Action{}, fmt.Errorf("%w: unexpected status %q", ErrInvalidTransition, in.Status)
}

func (a *Attempt) move(to State) {
	if a.state == to {
		return
	}
	a.state = to
	a.history = append(a.history, to)
}

func (a *Attempt) act(action Action) Action {
	action.Method = a.method.ID
	a.last = action
	return action
}

func (a *Attempt) pollTimeoutMs() int64 {
	return a.method.Timeout().Milliseconds()
}

func failureMessage(in *payments.Intent) string {
	if in.LastError != "" {
		return in.LastError
	}
	return "The payment failed."
}
