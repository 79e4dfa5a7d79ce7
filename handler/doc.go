// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// (see pkg/binder) and returns a Response. Wrap turns it into an
// http.HandlerFunc, running binders in order and routing any binding or
// rendering error to an ErrorHandler.
//
//	r.Post("/login", handler.Wrap(h.login,
//		handler.WithBinders[handler.Context, LoginRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, LoginRequest](errorHandler),
//	))
//
// # Responses
//
//   - JSON(v): v as the body, status 200 unless WithJSONStatus overrides it
//   - JSONError(err): an ErrorBody built by ErrorToBody
//   - Redirect(url): a 302 redirect
//
// # Errors
//
// ErrorToBody recognizes validator.ValidationErrors (400 with per-field
// details) and HTTPError (its own status). Everything else renders as a
// generic 500. NewErrorHandler adds logging, a domain classifier hook and a
// reporter hook for 5xx errors.
package handler
