package httpserver

import (
	"net/http"
	"time"

	"credchain/internal/platform/config"
)

// New builds an HTTP server from the server config. WriteTimeout must cover
// a full chain confirmation during issuance.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
