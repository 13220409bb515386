package http

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Ramesh se 500 mile  ", "Ramesh se 500 mile"},
		{"chai\x00\x07", "chai"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRangeParamsDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/ledger?to=2026-03-31&q=%20ram%20", nil)
	from, to, q, err := rangeParams(r, "05-03-2026")
	if err != nil {
		t.Fatalf("rangeParams: %v", err)
	}
	if from != "2026-03-05" || to != "2026-03-31" || q != "ram" {
		t.Fatalf("got from=%q to=%q q=%q", from, to, q)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct client", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted proxy header ignored", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:5000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
	if !isTrustedProxy(net.ParseIP("192.168.1.1")) || isTrustedProxy(net.ParseIP("8.8.8.8")) {
		t.Fatal("unexpected trusted proxy classification")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := &rateLimiter{limit: 2, clients: map[string]*clientInfo{}, stopCleanup: make(chan struct{})}
	metrics := &securityMetrics{}
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	if !rl.allowAt("a", now, metrics) || !rl.allowAt("a", now.Add(time.Second), metrics) {
		t.Fatal("first requests should pass")
	}
	if rl.allowAt("a", now.Add(2*time.Second), metrics) {
		t.Fatal("third request within the minute should be limited")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rate limit hits = %d", metrics.rateLimitHits)
	}
	if !rl.allowAt("b", now, metrics) {
		t.Fatal("limits are per client")
	}
	if !rl.allowAt("a", now.Add(3*time.Minute), metrics) {
		t.Fatal("window should reset after a minute of silence")
	}
	if n := rl.cleanupStaleEntries(now.Add(time.Hour)); n != 2 {
		t.Fatalf("expected 2 stale clients removed, got %d", n)
	}
}
