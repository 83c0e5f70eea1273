package main

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Env      string `json:"env"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Seeded   bool   `json:"seeded"`
}

// healthCheckHandler godoc
//
//	@Summary		Health check
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	error
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.store.Ping(ctx); err != nil {
		app.logger.Errorw("health check failed", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	out := HealthResponse{
		Status:   "ok",
		Env:      app.config.env,
		Version:  version,
		Provider: app.config.provider,
		Seeded:   app.seeder != nil && app.seeder.Done(),
	}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
