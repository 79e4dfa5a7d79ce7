package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authcore/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{
			name:       "first forwarded entry",
			forwarded:  "198.51.100.178, 203.0.113.195",
			remoteAddr: "10.0.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name:       "forwarded entry is trimmed",
			forwarded:  "  198.51.100.178  ,203.0.113.195",
			remoteAddr: "10.0.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name:       "single forwarded entry",
			forwarded:  "203.0.113.7",
			remoteAddr: "10.0.0.1:54321",
			expected:   "203.0.113.7",
		},
		{
			name:       "invalid first entry falls back to remote addr",
			forwarded:  "not-an-ip, 198.51.100.178",
			remoteAddr: "10.0.0.1:54321",
			expected:   "10.0.0.1",
		},
		{
			name:       "remote addr fallback",
			remoteAddr: "127.0.0.1:8080",
			expected:   "127.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.10",
			expected:   "192.0.2.10",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:8080",
			expected:   "2001:db8::1",
		},
		{
			name:       "ipv6 forwarded entry",
			forwarded:  "2001:db8::2",
			remoteAddr: "[::1]:8080",
			expected:   "2001:db8::2",
		},
		{
			name:       "garbage everywhere",
			forwarded:  "garbage",
			remoteAddr: "also-garbage",
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set(clientip.ForwardedHeader, tt.forwarded)
			}

			assert.Equal(t, tt.expected, clientip.GetIP(req))
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := clientip.WithIP(context.Background(), "203.0.113.195")
	assert.Equal(t, "203.0.113.195", clientip.FromContext(ctx))
	assert.Empty(t, clientip.FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.Resolve(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(clientip.ForwardedHeader, "198.51.100.1, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.1", seen)

	var stored bool
	h = clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stored = clientip.FromContext(r.Context()) != ""
	}))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "@"
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, stored, "unresolvable address must not be stored")
}

func TestResolve_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientip.Resolve(req))
}
