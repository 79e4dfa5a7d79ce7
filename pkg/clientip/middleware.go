package clientip

import (
	"context"
	"net/http"
)

type ipKey struct{}

// WithIP returns a copy of ctx carrying ip.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

// Middleware resolves the caller address once per request so rate limiting
// and access logging agree on it. Requests without a usable address pass
// through untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := GetIP(r); ip != "" {
			r = r.WithContext(WithIP(r.Context(), ip))
		}
		next.ServeHTTP(w, r)
	})
}
