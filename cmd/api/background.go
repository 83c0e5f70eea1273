package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"storefront/internal/payments"
)

// newReconciler schedules reconcileIntents. It catches up on outcomes whose
// webhook never arrived.
func (app *application) newReconciler() (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(app.config.reconcile.interval).Do(app.reconcileIntents); err != nil {
		return nil, fmt.Errorf("schedule reconciler: %w", err)
	}
	return s, nil
}

// reconcileIntents refreshes unresolved intents that have not been updated
// for a while. Outcomes found are published by the payments client.
func (app *application) reconcileIntents() {
	cfg := app.config.reconcile
	ctx, cancel := context.WithTimeout(context.Background(), cfg.interval)
	defer cancel()

	pending, err := app.store.PendingIntents(ctx, time.Now().Add(-cfg.staleAfter), cfg.batch)
	if err != nil {
		app.logger.Errorf("Error loading pending payment intents: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	var changed int
	for _, local := range pending {
		remote, err := app.payments.RetrieveStatus(ctx, local.ID)
		if err != nil {
			if errors.Is(err, payments.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
				app.logger.Warnw("reconcile interrupted", "intent", local.ID, "error", err)
				return
			}
			app.logger.Errorw("reconcile failed", "intent", local.ID, "error", err)
			continue
		}
		if remote.Status != local.Status || remote.LastError != local.LastError {
			changed++
		}
	}

	app.logger.Infow("reconciled payment intents", "checked", len(pending), "changed", changed)
}
