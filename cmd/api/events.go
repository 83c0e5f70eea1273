package main

import (
	"storefront/internal/events"
	"storefront/internal/mailer"
	"storefront/internal/money"
	"storefront/internal/payments"
)

type receiptData struct {
	StoreName   string
	OrderNumber string
	Amount      string
	Method      string
}

// subscribe wires the outcome handlers onto the event bus.
func (app *application) subscribe() error {
	if err := app.events.Subscribe(events.TopicSucceeded, app.onPaymentSucceeded); err != nil {
		return err
	}
	if err := app.events.Subscribe(events.TopicFailed, app.onPaymentFailed); err != nil {
		return err
	}
	return app.events.Subscribe(events.TopicCanceled, app.onPaymentCanceled)
}

func (app *application) onPaymentSucceeded(in *payments.Intent) {
	app.metrics.IncCounter("payment_outcome", map[string]string{"operation": in.Currency, "result": string(in.Status)})
	app.logger.Infow("payment succeeded", "intent", in, "order", in.Metadata["order"])

	if in.ReceiptEmail == "" {
		return
	}
	data := receiptData{
		StoreName:   app.config.store.name,
		OrderNumber: in.Metadata["order"],
		Amount:      money.Format(in.Amount, in.Currency),
		Method:      in.Metadata["method"],
	}
	if err := app.mailer.Send(mailer.ReceiptTemplate, "", in.ReceiptEmail, data); err != nil {
		app.logger.Errorw("error sending receipt email", "intent", in.ID, "error", err)
		return
	}
	app.logger.Infow("receipt sent", "intent", in.ID, "order", data.OrderNumber)
}

func (app *application) onPaymentFailed(in *payments.Intent) {
	app.metrics.IncCounter("payment_outcome", map[string]string{"operation": in.Currency, "result": "failed"})
	app.logger.Infow("payment failed", "intent", in)
}

func (app *application) onPaymentCanceled(in *payments.Intent) {
	app.metrics.IncCounter("payment_outcome", map[string]string{"operation": in.Currency, "result": string(in.Status)})
	app.logger.Infow("payment canceled", "intent", in)
}
