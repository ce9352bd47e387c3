package apihttp

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teo1264/enel-system/internal/auth"
	"github.com/teo1264/enel-system/internal/batch/application"
)

// NewMux wires the API routes, metrics endpoint and auth middleware.
// With an empty secret the API is served without authentication.
func NewMux(service *application.Service, jwtSecret []byte) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/runs", NewRunsHandler(service))
	mux.Handle("/api/v1/runs/latest", NewLatestHandler(service))
	mux.Handle("/api/v1/runs/latest/export.xlsx", NewExportHandler(service, "xlsx"))
	mux.Handle("/api/v1/runs/latest/export.pdf", NewExportHandler(service, "pdf"))
	mux.Handle("/api/v1/registry", NewRegistryHandler(service, false))
	mux.Handle("/api/v1/registry/reload", NewRegistryHandler(service, true))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if len(jwtSecret) == 0 {
		return mux
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	return auth.NewMiddleware(jwtSecret, policy).Wrap(mux)
}
