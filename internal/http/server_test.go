package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"irpfscan/internal/analysis"
	"irpfscan/internal/log"
	"irpfscan/internal/rules"
)

func testServer() *Server {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	pipeline := analysis.New(rules.DefaultTables(), logger)
	return NewServer(":0", pipeline, logger)
}

// declarationBody builds a minimal valid .DEC payload.
func declarationBody() string {
	line := make([]byte, 120)
	for i := range line {
		line[i] = ' '
	}
	put := func(at int, s string) { copy(line[at:], s) }
	put(0, "IRPF")
	put(8, "2025")
	put(12, "2024")
	put(21, "52998224725")
	put(38, "MARIA DA SILVA")
	put(98, "SP")
	return string(line) + "\n"
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := testServer()
	defer s.rateLimiter.stop()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(declarationBody()))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res analysis.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.TaxpayerName != "MARIA DA SILVA" {
		t.Fatalf("TaxpayerName = %q", res.TaxpayerName)
	}
	if res.TaxpayerCPF != "***.***.**7-25" {
		t.Fatalf("TaxpayerCPF = %q, want masked", res.TaxpayerCPF)
	}
	if res.Score.Score != 100 {
		t.Fatalf("score = %d, want 100 for an empty clean filing", res.Score.Score)
	}
}

func TestAnalyzeEndpointRejectsGarbage(t *testing.T) {
	s := testServer()
	defer s.rateLimiter.stop()

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"wrong magic", "DIRPF2025 something else entirely\n"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", c.name, rec.Code)
		}
		var e errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Error == "" {
			t.Errorf("%s: body = %s, want error payload", c.name, rec.Body.String())
		}
	}
}

func TestAnalyzeEndpointMethod(t *testing.T) {
	s := testServer()
	defer s.rateLimiter.stop()

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()
	defer s.rateLimiter.stop()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < requestsPerMinute; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over the budget should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("other clients keep their own budget")
	}
}

func TestRateLimitedEndpoint(t *testing.T) {
	s := testServer()
	defer s.rateLimiter.stop()

	var last int
	for i := 0; i < requestsPerMinute+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(""))
		req.RemoteAddr = "192.0.2.1:50000"
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after exhausting the budget = %d, want 429", last)
	}
}
