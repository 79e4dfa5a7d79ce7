package binder

import "net/http"

// Query creates a binder for URL query parameters.
//
// Struct tags select the parameter name:
//   - `query:"name"` binds parameter "name"
//   - `query:"-"` skips the field
//
// Untagged exported fields bind their lowercased field name.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
