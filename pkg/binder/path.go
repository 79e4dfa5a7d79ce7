package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path creates a path parameter binder using the router's extractor,
// chi.URLParam being the usual one.
//
//	type CallbackRequest struct {
//		Provider string `path:"provider"`
//		Code     string `query:"code"`
//	}
//
//	r.Get("/oauth/{provider}/callback", handler.Wrap(h.callback,
//		handler.WithBinders[handler.Context, CallbackRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrFailedToParsePath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrFailedToParsePath)
		}
		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrFailedToParsePath)
		}

		values := make(map[string][]string)
		rt := rv.Type()
		for i := range rv.NumField() {
			name, skip := parseFieldTag(rt.Field(i), "path")
			if skip || rt.Field(i).Tag.Get("path") == "" {
				continue
			}
			if value := extractor(r, name); value != "" {
				values[name] = []string{value}
			}
		}

		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
