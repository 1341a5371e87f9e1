package middleware

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvclean/internal/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"ok", http.StatusOK, "a,b\n", "level=INFO"},
		{"client error", http.StatusBadRequest, "bad", "level=WARN"},
		{"server error", http.StatusInternalServerError, "", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clean", nil))

			out := buf.String()
			for _, want := range []string{
				tt.wantLevel,
				"method=POST",
				"path=/api/clean",
				"request_id=",
				fmt.Sprintf("status=%d", tt.status),
			} {
				if !strings.Contains(out, want) {
					t.Errorf("log %q missing %q", out, want)
				}
			}
		})
	}
}

func TestResponseWriter_CountsBytesAndKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)
	w.Write([]byte("hello"))
	w.Write([]byte(" world"))

	if w.status != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.status, http.StatusCreated)
	}
	if w.bytes != 11 {
		t.Errorf("bytes = %d, want 11", w.bytes)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("recorded code = %d, want %d", rec.Code, http.StatusCreated)
	}
}
