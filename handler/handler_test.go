package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/handler"
	"github.com/dmitrymomot/authcore/pkg/binder"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

type echoRequest struct {
	Name string `json:"name"`
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := func(ctx handler.Context, req echoRequest) handler.Response {
		return handler.JSON(map[string]string{"name": req.Name})
	}

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(echo, handler.WithBinders[handler.Context, echoRequest](binder.JSON()))
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "Ann", decodeBody(t, w)["name"])
	})

	t.Run("bind error goes to error handler", func(t *testing.T) {
		t.Parallel()

		var got error
		h := handler.Wrap(echo,
			handler.WithBinders[handler.Context, echoRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, echoRequest](func(ctx handler.Context, err error) {
				got = err
				ctx.ResponseWriter().WriteHeader(http.StatusBadRequest)
			}),
		)
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.ErrorIs(t, got, binder.ErrFailedToParseJSON)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		var got error
		h := handler.Wrap(
			func(handler.Context, echoRequest) handler.Response { return nil },
			handler.WithErrorHandler[handler.Context, echoRequest](func(_ handler.Context, err error) { got = err }),
		)
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, got, handler.ErrNilResponse)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()

		var order []string
		mark := func(name string) handler.Decorator[handler.Context, echoRequest] {
			return func(next handler.HandlerFunc[handler.Context, echoRequest]) handler.HandlerFunc[handler.Context, echoRequest] {
				return func(ctx handler.Context, req echoRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}

		h := handler.Wrap(echo, handler.WithDecorators(mark("outer"), mark("inner")))
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("context delegates to request", func(t *testing.T) {
		t.Parallel()

		type key struct{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), key{}, "v"))

		ctx := handler.NewContext(httptest.NewRecorder(), r)
		assert.Equal(t, "v", ctx.Value(key{}))
		assert.Same(t, r, ctx.Request())
		assert.NoError(t, ctx.Err())
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	var verrs validator.ValidationErrors
	verrs.Add(validator.ValidationError{Field: "password", Message: "too short"})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", verrs, http.StatusBadRequest, "validation_error", "too short"},
		{"joined validation", errors.Join(errors.New("policy"), verrs), http.StatusBadRequest, "validation_error", "too short"},
		{"http error", handler.ErrConflict, http.StatusConflict, "conflict", "Conflict"},
		{"http error with message", handler.ErrNotFound.WithMessage("user not found"), http.StatusNotFound, "not_found", "user not found"},
		{"unknown", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal_server_error", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}

	t.Run("validation details", func(t *testing.T) {
		t.Parallel()

		_, body := handler.ErrorToBody(verrs)
		assert.Equal(t, map[string][]string{"password": {"too short"}}, body.Details)
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	errDomain := errors.New("domain conflict")
	errStore := errors.New("store down")

	var reported []error
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	eh := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{
		Classify: func(err error) error {
			if errors.Is(err, errDomain) {
				return handler.ErrConflict.WithMessage("email already registered")
			}
			return err
		},
		Report: func(_ context.Context, err error) { reported = append(reported, err) },
	})

	w := httptest.NewRecorder()
	eh(handler.NewContext(w, httptest.NewRequest(http.MethodPost, "/register", nil)), errDomain)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already registered", decodeBody(t, w)["message"])
	assert.Empty(t, reported)

	w = httptest.NewRecorder()
	eh(handler.NewContext(w, httptest.NewRequest(http.MethodPost, "/register", nil)), errStore)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "store down")
	assert.Equal(t, []error{errStore}, reported)
	assert.Contains(t, logs.String(), `"status_code":500`)
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, handler.Redirect("https://app.test/done?token=x").Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.test/done?token=x", w.Header().Get("Location"))
}
