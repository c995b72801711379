package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		req := httptest.NewRequest("POST", "/register", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: log %q missing %q", tt.status, out, tt.level)
		}
		if !strings.Contains(out, "path=/register") {
			t.Errorf("status %d: log %q missing path", tt.status, out)
		}
	}
}
