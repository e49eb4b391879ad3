package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
	"finadvisor/internal/events"
	"finadvisor/internal/health"
	"finadvisor/internal/ingest"
)

const missingDataMessage = "Please enter your financial data first."

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		respondMethodNotAllowed(w, "GET")
		return
	}
	s.render(w, r, "index.html", struct {
		AIEnabled bool
	}{AIEnabled: s.advisor.AIEnabled()})
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondMethodNotAllowed(w, "GET")
		return
	}
	s.render(w, r, "input.html", struct {
		Categories []string
		Error      string
	}{
		Categories: core.Categories(),
		Error:      r.URL.Query().Get("error"),
	})
}

func (s *Server) handleProcessManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMethodNotAllowed(w, "POST")
		return
	}

	var payload map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		respondIngestError(w, r, "Invalid request body: expected a JSON object.")
		return
	}

	fields := make(map[string]string, len(payload))
	for k, v := range payload {
		switch t := v.(type) {
		case string:
			fields[k] = t
		case json.Number:
			fields[k] = t.String()
		case nil:
			// treat explicit null as absent
		default:
			fields[k] = fmt.Sprint(t)
		}
	}

	in, err := ingest.Manual(fields)
	if err != nil {
		slog.WarnContext(r.Context(), "Manual ingestion rejected", "error", err)
		respondIngestError(w, r, "Error processing data: "+err.Error())
		return
	}

	s.storeSnapshot(w, r, in, core.SourceManual)
}

func (s *Server) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMethodNotAllowed(w, "POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		respondIngestError(w, r, "Upload too large or malformed.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondIngestError(w, r, "No file uploaded.")
		return
	}
	defer file.Close()

	if !isCSVFilename(header) {
		respondIngestError(w, r, "Please upload a CSV file.")
		return
	}

	in, err := ingest.CSV(file)
	if err != nil {
		slog.WarnContext(r.Context(), "CSV ingestion rejected", "error", err, "filename", header.Filename)
		respondIngestError(w, r, "Error processing CSV: "+err.Error())
		return
	}

	s.storeSnapshot(w, r, in, core.SourceCSV)
}

func isCSVFilename(header *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(header.Filename), ".csv")
}

// storeSnapshot computes the snapshot, replaces the session state
// wholesale, and emits the ingestion event.
func (s *Server) storeSnapshot(w http.ResponseWriter, r *http.Request, in core.RawInput, src core.Source) {
	snap := core.BuildSnapshot(in, src)

	sessionID := s.sessions.Ensure(w, r)
	if err := s.store.Set(r.Context(), sessionID, snap); err != nil {
		slog.ErrorContext(r.Context(), "Failed saving session snapshot", "error", err, "session_id", sessionID)
		respondJSON(w, r, http.StatusInternalServerError,
			ingestResponse{Success: false, Message: "Could not save your data. Please try again."})
		return
	}

	if s.publisher != nil {
		msg := events.NewSnapshotIngested(sessionID, snap, health.Score(snap))
		if err := s.publisher.PublishSnapshotIngested(r.Context(), msg); err != nil {
			slog.WarnContext(r.Context(), "Failed publishing ingestion event", "error", err, "session_id", sessionID)
		}
	}

	respondJSON(w, r, http.StatusOK, ingestResponse{
		Success: true,
		Message: "Data processed successfully",
		Data:    &snap,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondMethodNotAllowed(w, "GET")
		return
	}

	snap, ok := s.sessionSnapshot(r)
	if !ok {
		redirectToInput(w, r)
		return
	}

	s.render(w, r, "dashboard.html", newDashboardView(snap, health.Score(snap), s.advisor.AIEnabled()))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMethodNotAllowed(w, "POST")
		return
	}

	snap, ok := s.sessionSnapshot(r)
	if !ok {
		respondJSON(w, r, http.StatusBadRequest,
			analyzeResponse{Success: false, Message: missingDataMessage})
		return
	}

	result := health.Score(snap)

	key := s.analysisKey(r, snap)
	analysis, cached := s.analysisCache.Get(key)
	if !cached {
		analysis = s.advisor.Analyze(r.Context(), snap)
		s.analysisCache.Set(key, analysis)
	}

	respondJSON(w, r, http.StatusOK, analyzeResponse{
		Success:     true,
		Analysis:    analysis,
		HealthScore: &result,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMethodNotAllowed(w, "POST")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&payload); err != nil {
		respondJSON(w, r, http.StatusBadRequest,
			chatResponse{Success: false, Message: "Invalid request body."})
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		respondJSON(w, r, http.StatusBadRequest,
			chatResponse{Success: false, Message: "Message cannot be empty."})
		return
	}

	// Chat works without a snapshot; the context is just empty then.
	snap, _ := s.sessionSnapshot(r)

	respondJSON(w, r, http.StatusOK, chatResponse{
		Success:  true,
		Response: s.advisor.Chat(r.Context(), payload.Message, snap),
	})
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondMethodNotAllowed(w, "GET")
		return
	}

	snap, ok := s.sessionSnapshot(r)
	if !ok {
		redirectToInput(w, r)
		return
	}

	s.render(w, r, "chat.html", struct {
		Month     string
		AIEnabled bool
	}{Month: snap.Month, AIEnabled: s.advisor.AIEnabled()})
}

// sessionSnapshot loads the request's session snapshot. Store errors
// are logged and reported as an absent snapshot.
func (s *Server) sessionSnapshot(r *http.Request) (core.Snapshot, bool) {
	sessionID, ok := s.sessions.SessionID(r)
	if !ok {
		return core.Snapshot{}, false
	}
	snap, found, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed loading session snapshot", "error", err, "session_id", sessionID)
		return core.Snapshot{}, false
	}
	return snap, found
}

// analysisKey keys the cache by session and snapshot timestamp, so a
// fresh ingestion naturally invalidates prior analysis text.
func (s *Server) analysisKey(r *http.Request, snap core.Snapshot) string {
	sessionID, _ := s.sessions.SessionID(r)
	return sessionID + "|" + snap.Timestamp.Format(time.RFC3339Nano)
}

func redirectToInput(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/input?error="+url.QueryEscape(missingDataMessage), http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// categoryRow is one expense line on the dashboard.
type categoryRow struct {
	Name    string
	Amount  string
	Percent string
	Width   int
}

type dashboardView struct {
	Month         string
	Income        string
	TotalExpenses string
	Savings       string
	SavingsRate   string
	Health        health.Result
	Rows          []categoryRow
	AIEnabled     bool
}

func newDashboardView(snap core.Snapshot, result health.Result, aiEnabled bool) dashboardView {
	view := dashboardView{
		Month:         snap.Month,
		Income:        formatRupees(snap.Income),
		TotalExpenses: formatRupees(snap.TotalExpenses),
		Savings:       formatRupees(snap.Savings),
		SavingsRate:   snap.SavingsRate.StringFixed(1) + "%",
		Health:        result,
		AIEnabled:     aiEnabled,
	}

	// Scale bars against the largest category so the chart fills its width.
	var max decimal.Decimal
	for _, cat := range core.Categories() {
		if amt := snap.Expense(cat); amt.GreaterThan(max) {
			max = amt
		}
	}

	for _, cat := range core.Categories() {
		amt := snap.Expense(cat)
		width := 0
		if max.IsPositive() && amt.IsPositive() {
			width = int(amt.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		view.Rows = append(view.Rows, categoryRow{
			Name:    cat,
			Amount:  formatRupees(amt),
			Percent: snap.ExpensePercentages[cat].StringFixed(1) + "%",
			Width:   width,
		})
	}
	return view
}

// formatRupees renders an amount as an Indian Rupee string, e.g. "₹1250.00".
func formatRupees(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Abs().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}
