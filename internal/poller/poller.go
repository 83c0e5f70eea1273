// Package poller waits for a payment intent to reach a state the UI can show.
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront/internal/payments"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// Source reads the current state of an intent. *payments.Client and the
// HTTP API client both satisfy it.
type Source interface {
	RetrieveStatus(ctx context.Context, id string) (*payments.Intent, error)
}

type Config struct {
	Timeout  time.Duration
	Interval time.Duration
	// WaitPastProcessing keeps polling while the intent is processing, for
	// callers that need the definite outcome.
	WaitPastProcessing bool
	Clock              Clock
	Logger             *zap.SugaredLogger
}

// State describes one polling run.
type State struct {
	IntentID  string
	StartedAt time.Time
	Timeout   time.Duration
	Interval  time.Duration
	Attempts  int
}

func (s State) Deadline() time.Time { return s.StartedAt.Add(s.Timeout) }

type Poller struct {
	source Source
	cfg    Config
}

func New(source Source, cfg Config) *Poller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Poller{source: source, cfg: cfg}
}

// WithTimeout returns a copy of the poller using timeout, e.g. the longer
// window of a receiver flow.
func (p *Poller) WithTimeout(timeout time.Duration) *Poller {
	cp := *p
	if timeout > 0 {
		cp.cfg.Timeout = timeout
	}
	return &cp
}

func (p *Poller) Config() Config { return p.cfg }

// PollUntilTerminal retrieves the intent until it is terminal or the timeout
// elapses. On timeout the last state seen is returned together with a
// *payments.TimeoutError. Transient retrieval errors are retried; any other
// error stops polling.
func (p *Poller) PollUntilTerminal(ctx context.Context, intentID string) (*payments.Intent, error) {
	clock := p.cfg.Clock
	state := State{
		IntentID:  intentID,
		StartedAt: clock.Now(),
		Timeout:   p.cfg.Timeout,
		Interval:  p.cfg.Interval,
	}

	var (
		last    *payments.Intent
		lastErr error
	)
	for {
		state.Attempts++
		in, err := p.source.RetrieveStatus(ctx, intentID)
		switch {
		case err == nil:
			last, lastErr = in, nil
			if p.terminal(in) {
				return in, nil
			}
		case errors.Is(err, payments.ErrTransient):
			lastErr = err
			p.cfg.Logger.Warnw("status poll failed, retrying", "intent", intentID, "attempt", state.Attempts, "error", err)
		default:
			return last, err
		}

		elapsed := clock.Now().Sub(state.StartedAt)
		if elapsed >= state.Timeout {
			timeoutErr := &payments.TimeoutError{
				IntentID: intentID,
				Last:     last,
				Elapsed:  elapsed,
				Attempts: state.Attempts,
				Cause:    lastErr,
			}
			p.cfg.Logger.Warnw("status poll timed out", "intent", intentID, "attempts", state.Attempts,
				"elapsed", elapsed, "last_status", lastStatus(last))
			return last, timeoutErr
		}

		wait := min(state.Interval, state.Timeout-elapsed)
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-clock.After(wait):
		}
	}
}

func (p *Poller) terminal(in *payments.Intent) bool {
	if p.cfg.WaitPastProcessing && in.Status == payments.StatusProcessing {
		return false
	}
	return in.Terminal()
}

func lastStatus(in *payments.Intent) string {
	if in == nil {
		return "unknown"
	}
	return string(in.Status)
}
