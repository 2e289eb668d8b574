package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/redeban-reporter/internal/logger"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"generated", ""},
		{"propagated", "abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatal("request ID missing from context")
			}
			if tt.header != "" && seen != tt.header {
				t.Errorf("request ID = %q, want %q", seen, tt.header)
			}
			if rec.Header().Get("X-Request-ID") != seen {
				t.Errorf("header = %q, want %q", rec.Header().Get("X-Request-ID"), seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info")
	h := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Errorf("log = %q, want panic entry", buf.String())
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info")

	var ctxLogged bool
	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.FromContext(r.Context())
		l.Info().Msg("inside handler")
		ctxLogged = true
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Request-ID", "req-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !ctxLogged {
		t.Fatal("handler not called")
	}
	for _, want := range []string{"inside handler", "HTTP request", "req-9", "418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Allow-Origin header")
	}
}
