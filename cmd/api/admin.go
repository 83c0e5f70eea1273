package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/params"
	"storefront/internal/payments"
	"storefront/internal/store"
)

type IntentListResponse struct {
	Intents []*payments.Intent `json:"intents"`
	Meta    params.Pagination  `json:"meta"`
}

// listIntentsHandler godoc
//
//	@Summary		List payment intents (admin)
//	@Description	Stored payment intents, newest first. Client secrets are never stored.
//	@Tags			admin
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(requires_payment_method,requires_confirmation,requires_action,processing,requires_capture,succeeded,canceled,failed)
//	@Param			page	query		int		false	"Page number"		default(1)
//	@Param			limit	query		int		false	"Items per page"	default(15)
//	@Success		200		{object}	IntentListResponse
//	@Failure		401		{object}	error
//	@Security		BasicAuth
//	@Router			/admin/intents [get]
func (app *application) listIntentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := params.ParsePagination(q)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	intents, total, err := app.store.ListIntents(ctx, store.ListFilter{
		Status: payments.Status(strings.TrimSpace(q.Get("status"))),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	page.ComputeMeta(total)

	if intents == nil {
		intents = []*payments.Intent{}
	}
	if err := app.jsonResponse(w, http.StatusOK, IntentListResponse{Intents: intents, Meta: page}); err != nil {
		app.internalServerError(w, r, err)
	}
}
