package api

import (
	"net/http"
	"time"

	"github.com/comandahub/comanda-backend/pkg/config"
)

// NewServer returns the HTTP server cmd/api runs. Timeouts are tuned for
// dashboard traffic and marketplace webhook deliveries, both of which carry
// small payloads.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
