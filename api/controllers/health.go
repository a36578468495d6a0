package controllers

import (
	"context"
	"net/http"

	"github.com/comandahub/comanda-backend/api/responses"
	"github.com/comandahub/comanda-backend/pkg/config"
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Comanda-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports degraded dependencies without failing the probe for
// Redis, which only backs idempotency replay.
func HealthReady(cfg *config.Config, db pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Comanda-Env", cfg.App.Env)

		checks := map[string]string{"status": "ready"}
		status := http.StatusOK

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				checks["database"] = "unavailable"
				checks["status"] = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				checks["database"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				checks["redis"] = "unavailable"
			} else {
				checks["redis"] = "ok"
			}
		}

		responses.WriteSuccessStatus(w, status, checks)
	}
}
