package api

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"qrshield/internal/config"
)

// NewRouter wires the assessment API and the static web app.
func NewRouter(h *Handler, cfg config.ServerConfig) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")

	analyze := http.Handler(http.HandlerFunc(h.AnalyzeHandler))
	if cfg.RateLimit.Enabled {
		analyze = NewRateLimiter(cfg.RateLimit).Middleware(analyze)
	}
	if cfg.AuthTokenHash != "" {
		analyze = RequireToken(cfg.AuthTokenHash)(analyze)
	}
	r.Handle("/api/analyze", analyze).Methods("POST")

	indexPath := filepath.Join(cfg.WebRoot, "index.html")
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, indexPath)
	}).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebRoot))).Methods("GET")

	return r
}
