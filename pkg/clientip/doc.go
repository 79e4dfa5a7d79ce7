// Package clientip resolves the address of the caller behind a request.
//
// Resolution looks at the first entry of the X-Forwarded-For header and
// falls back to the TCP peer address. The resolved address scopes the
// per-client rate limit windows, so it affects fairness between callers
// rather than the correctness of the limiter itself.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Use(clientip.Middleware)
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		ip := clientip.Resolve(r)
//		_ = ip
//	})
//
// GetIP never returns an error. If no valid address is found an empty
// string is returned so callers can decide how to proceed.
package clientip
