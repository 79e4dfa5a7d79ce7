// Package binder decodes HTTP request data into typed request structs.
//
// Each binder has the signature func(*http.Request, any) error so it can be
// passed to handler.WithBinders. Three sources are supported:
//
//   - JSON(): strict application/json bodies capped at DefaultMaxJSONSize
//   - Query(): URL query parameters matched by `query:"..."` tags
//   - Path(extractor): router path parameters matched by `path:"..."` tags
//
// Failures wrap one of the package sentinels (ErrFailedToParseJSON,
// ErrUnsupportedMediaType and so on) so the HTTP layer can answer with 400.
package binder
