package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emberapp/discovery/internal/config"
)

// Start serves the router on the configured address. Blocks until the
// listener fails.
func Start(cfg *config.Config, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
