package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"qrshield/internal/ai"
	"qrshield/internal/models"
	"qrshield/internal/risk"
)

// Handler serves the assessment API.
type Handler struct {
	analyzer ai.Analyzer
	logger   *slog.Logger
}

func NewHandler(analyzer ai.Analyzer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{analyzer: analyzer, logger: logger}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeHandler implements POST /api/analyze. A missing URL is a client
// error; an AI-backend failure is absorbed into the fixed degraded-mode
// payload with a server-error status so callers always receive a well-formed
// assessment body.
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	assessment, err := h.analyzer.Assess(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("assessment failed", "url", req.URL, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.DegradedAssessment())
		return
	}

	assessment.RiskLevel = risk.Classify(assessment.RiskScore)
	if assessment.Indicators == nil {
		assessment.Indicators = []string{}
	}
	h.logger.Info("url assessed", "url", req.URL, "score", assessment.RiskScore, "level", assessment.RiskLevel)
	writeJSON(w, http.StatusOK, assessment)
}

// HealthHandler reports liveness.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
