package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"finadvisor/internal/core"
	"finadvisor/internal/health"
)

// ingestResponse is the body returned by both ingestion endpoints.
type ingestResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *core.Snapshot `json:"data,omitempty"`
}

// analyzeResponse pairs the advisory text with the health rubric result.
type analyzeResponse struct {
	Success     bool           `json:"success"`
	Analysis    string         `json:"analysis,omitempty"`
	HealthScore *health.Result `json:"health_score,omitempty"`
	Message     string         `json:"message,omitempty"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Failed encoding response", "error", err, "url", r.URL.Path)
	}
}

// respondIngestError reports an ingestion failure. Bad input is the
// caller's problem, so the status is 400 with a human-readable message.
func respondIngestError(w http.ResponseWriter, r *http.Request, message string) {
	respondJSON(w, r, http.StatusBadRequest, ingestResponse{Success: false, Message: message})
}

func respondMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
