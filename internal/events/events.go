// Package events fans out payment outcomes to in-process subscribers such as
// the receipt mailer and the metrics recorder.
package events

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"

	"storefront/internal/payments"
)

const (
	TopicSucceeded = "intent:succeeded"
	TopicFailed    = "intent:failed"
	TopicCanceled  = "intent:canceled"
)

// Handler receives a copy of the intent. Handlers run asynchronously.
type Handler func(in *payments.Intent)

type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// TopicFor returns the topic for a final intent status, or "" when the
// status is not published.
func TopicFor(in *payments.Intent) string {
	switch {
	case in.Status == payments.StatusSucceeded:
		return TopicSucceeded
	case in.Status == payments.StatusCanceled:
		return TopicCanceled
	case in.Status == payments.StatusFailed,
		in.Status == payments.StatusRequiresPaymentMethod && in.LastError != "":
		return TopicFailed
	}
	return ""
}

func (b *Bus) Subscribe(topic string, h Handler) error {
	if err := b.bus.SubscribeAsync(topic, h, false); err != nil {
		return fmt.Errorf("events: subscribe %s: %w", topic, err)
	}
	return nil
}

// Publish sends the intent to the subscribers of its topic and reports
// whether it had one.
func (b *Bus) Publish(in *payments.Intent) bool {
	topic := TopicFor(in)
	if topic == "" {
		return false
	}
	b.bus.Publish(topic, in.Public())
	return true
}

// Wait blocks until all asynchronous handlers have returned.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}
