package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		forwarded string
		remote    string
		want      string
	}{
		{"203.0.113.1", "198.51.100.10:1234", "203.0.113.1"},
		{" 203.0.113.1 , 198.51.100.2 ", "198.51.100.10:1234", "203.0.113.1"},
		{"unknown, 203.0.113.9", "198.51.100.10:1234", "203.0.113.9"},
		{"invalid", "198.51.100.10:1234", "198.51.100.10"},
		{"", "198.51.100.10:1234", "198.51.100.10"},
		{"2001:db8::1", "[2001:db8::2]:443", "2001:db8::1"},
		{"invalid", "[2001:db8::2]:443", "2001:db8::2"},
		{"::ffff:203.0.113.5", "198.51.100.10:1234", "203.0.113.5"},
		{"", "203.0.113.1", "203.0.113.1"},
		{"", "pipe", "pipe"},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := ClientIP(req); got != tc.want {
			t.Errorf("ClientIP(xff=%q, remote=%q) = %q, want %q", tc.forwarded, tc.remote, got, tc.want)
		}
	}
	if ClientIP(nil) != "" {
		t.Error("ClientIP(nil) should be empty")
	}
}
