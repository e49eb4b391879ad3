package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/events"
	applog "finadvisor/internal/log"
	"finadvisor/internal/session"
	"finadvisor/internal/session/memory"
)

type fakePublisher struct {
	msgs []*events.SnapshotIngested
}

func (p *fakePublisher) PublishSnapshotIngested(_ context.Context, msg *events.SnapshotIngested) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

func newTestServer(t *testing.T, pub Publisher) *Server {
	t.Helper()
	adv := advisor.New(nil, applog.Setup())
	sessions := session.NewManager("test-secret", time.Hour)
	srv := NewServer(":0", sessions, memory.New(time.Hour), adv, pub, Options{
		MaxUploadBytes:   16 << 20,
		AnalysisCacheTTL: time.Minute,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

// ingestManual submits a valid manual payload and returns the session cookies.
func ingestManual(t *testing.T, srv *Server) []*http.Cookie {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/process-manual",
		`{"income": 50000, "rent": 15000, "food": 8000, "emi": 20000}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("process-manual status = %d, body = %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("process-manual should set a session cookie")
	}
	return cookies
}

func TestPagesAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := doJSON(t, srv, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "FinAdvisor") {
		t.Error("index body missing heading")
	}

	rr = doJSON(t, srv, http.MethodGet, "/no-such-page", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rr.Code)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	rr = doJSON(t, srv, http.MethodGet, "/input", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("input status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Healthcare") {
		t.Error("input page should list schema categories")
	}
}

func TestProcessManual(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := doJSON(t, srv, http.MethodPost, "/process-manual",
		`{"income": "50000", "rent": "15000", "food": "8000", "emi": "20000"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("response = %+v, want success with data", resp)
	}
	if got := resp.Data.TotalExpenses.String(); got != "43000" {
		t.Errorf("TotalExpenses = %s, want 43000", got)
	}
	if got := resp.Data.SavingsRate.String(); got != "14" {
		t.Errorf("SavingsRate = %s, want 14", got)
	}
}

func TestProcessManual_Failures(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `income=50000`},
		{"non-numeric income", `{"income": "lots"}`},
		{"negative income", `{"income": "-5"}`},
		{"non-numeric category", `{"income": "50000", "rent": "cheap"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/process-manual", tt.body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
			}
			var resp ingestResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success || resp.Message == "" {
				t.Errorf("response = %+v, want failure with message", resp)
			}
		})
	}

	rr := doJSON(t, srv, http.MethodGet, "/process-manual", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rr.Code)
	}
}

func csvRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcessCSV(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, csvRequest(t, "expenses.csv",
		"Category,Amount\nIncome,50000\nRent,15000\nFood,8000\nEMI,20000\n"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("response = %+v, want success with data", resp)
	}
	if got := resp.Data.Savings.String(); got != "7000" {
		t.Errorf("Savings = %s, want 7000", got)
	}
	if got := string(resp.Data.Source); got != "csv" {
		t.Errorf("Source = %s, want csv", got)
	}
}

func TestProcessCSV_Failures(t *testing.T) {
	srv := newTestServer(t, nil)

	// Wrong extension
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, csvRequest(t, "expenses.xlsx", "Category,Amount\n"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("xlsx status = %d, want 400", rr.Code)
	}

	// No file field
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/process-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", rr.Code)
	}

	// Missing required column
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, csvRequest(t, "expenses.csv", "Category,Value\nRent,100\n"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad header status = %d, want 400", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, nil)

	// Without a session the dashboard redirects to the input page.
	rr := doJSON(t, srv, http.MethodGet, "/dashboard", "", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); !strings.HasPrefix(loc, "/input?error=") {
		t.Errorf("Location = %q, want /input?error=...", loc)
	}

	cookies := ingestManual(t, srv)
	rr = doJSON(t, srv, http.MethodGet, "/dashboard", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"₹50000.00", "₹43000.00", "14.0%", "65/100", "Good"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := doJSON(t, srv, http.MethodPost, "/analyze", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("no-session status = %d, want 400", rr.Code)
	}

	cookies := ingestManual(t, srv)
	rr = doJSON(t, srv, http.MethodPost, "/analyze", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp analyzeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.HealthScore == nil {
		t.Fatalf("response = %+v, want success with health score", resp)
	}
	if resp.HealthScore.Score != 65 || resp.HealthScore.Status != "Good" {
		t.Errorf("health = %+v, want 65/Good", resp.HealthScore)
	}
	// With no AI configured the rule-based report is served.
	if !strings.Contains(resp.Analysis, "Financial Analysis Report") {
		t.Errorf("analysis = %q, want rule-based report", resp.Analysis)
	}

	// The second call hits the cache and returns identical text.
	rr2 := doJSON(t, srv, http.MethodPost, "/analyze", "", cookies)
	var resp2 analyzeResponse
	if err := json.Unmarshal(rr2.Body.Bytes(), &resp2); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if resp2.Analysis != resp.Analysis {
		t.Error("repeated analyze should serve the cached analysis")
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(t, nil)

	// Empty message rejected
	rr := doJSON(t, srv, http.MethodPost, "/chat", `{"message": "  "}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d, want 400", rr.Code)
	}

	// Without AI configured the static unavailable message is returned,
	// with or without a session snapshot.
	rr = doJSON(t, srv, http.MethodPost, "/chat", `{"message": "how am I doing?"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Response != advisor.ChatUnavailableMessage {
		t.Errorf("response = %+v, want unavailable message", resp)
	}
}

func TestChatPage(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := doJSON(t, srv, http.MethodGet, "/chat-page", "", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("no-session status = %d, want 303", rr.Code)
	}

	cookies := ingestManual(t, srv)
	rr = doJSON(t, srv, http.MethodGet, "/chat-page", "", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Ask the Advisor") {
		t.Error("chat page missing heading")
	}
}

func TestIngestionPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	srv := newTestServer(t, pub)

	ingestManual(t, srv)

	if len(pub.msgs) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Source != "manual" || msg.SessionID == "" {
		t.Errorf("event = %+v, want manual source with session id", msg)
	}
	if msg.HealthScore != 65 {
		t.Errorf("HealthScore = %d, want 65", msg.HealthScore)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 30; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request 31 should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other clients should not be affected")
	}
}
