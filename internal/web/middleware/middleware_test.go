package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/logging"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:   "no trusted proxies ignores headers",
			remote: "203.0.113.5:5555",
			headers: map[string]string{
				"X-Real-IP": "1.2.3.4",
			},
			want: "203.0.113.5",
		},
		{
			name:    "trusted proxy x-real-ip",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:443",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name:    "trusted single address with forwarded-for chain",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:9000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"},
			want:    "198.51.100.9",
		},
		{
			name:    "invalid header value keeps remote",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:443",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3",
		},
		{
			name:    "untrusted source",
			trusted: []string{"10.0.0.0/8", "bogus"},
			remote:  "192.0.2.1:80",
			headers: map[string]string{"X-Forwarded-For": "1.1.1.1"},
			want:    "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Error("limits are per IP")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Error("a new window should reset the count")
	}

	now = now.Add(3 * time.Minute)
	rl.evict()
	if len(rl.visitors) != 0 {
		t.Errorf("evict left %d visitors", len(rl.visitors))
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/sensors/x", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=4", "method=DELETE", "path=/api/v1/sensors/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
