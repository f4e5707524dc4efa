package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// codedErr stands in for an application error taxonomy.
type codedErr struct {
	code   string
	status int
}

func (e codedErr) Error() string   { return "coded " + e.code }
func (e codedErr) Code() string    { return e.code }
func (e codedErr) HTTPStatus() int { return e.status }

var (
	errNotAMember = codedErr{"NotAMember", http.StatusForbidden}
	errFinalized  = codedErr{"AlreadyFinalized", http.StatusConflict}
	errBroken     = codedErr{"Internal", http.StatusInternalServerError}
)

func TestFromDomain(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"coded", errNotAMember, http.StatusForbidden, "NotAMember"},
		{"wrapped coded", fmt.Errorf("%w: p1", errFinalized), http.StatusConflict, "AlreadyFinalized"},
		{"coded internal", errBroken, http.StatusInternalServerError, "Internal"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Internal"},
		{"deadline", fmt.Errorf("rate: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var httpErr *HTTPError
			require.ErrorAs(t, FromDomain(tc.err), &httpErr)
			require.Equal(t, tc.status, httpErr.Status)
			require.Equal(t, tc.code, httpErr.Code)
		})
	}

	require.NoError(t, FromDomain(nil))

	notFound := NotFound("no such route")
	require.Same(t, notFound, FromDomain(notFound))
}

func TestHandler_CommandTimeout(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		return ctx.Err()
	}, discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"Timeout"`)
}

func TestHandler_RespondsWithErrorBody(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return fmt.Errorf("%w: p9", errNotAMember)
	}, discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NotAMember", body["code"])
	require.Equal(t, "unknown", body["request_id"])
	require.Contains(t, body["error"], "p9")
}

func TestHandler_HidesInternalErrors(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("connection refused by 10.0.0.3")
	}, discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.3")
}

type payload struct {
	Name  string `json:"name" validate:"required,max=5"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"abc","count":1}`, false},
		{"empty body", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"abc","extra":true}`, true},
		{"missing required", `{"count":1}`, true},
		{"too long", `{"name":"abcdefg"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var p payload
			err := DecodeJSON(req, &p)
			if !tc.wantErr {
				require.NoError(t, err)
				require.Equal(t, "abc", p.Name)
				return
			}
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			require.Equal(t, http.StatusBadRequest, httpErr.Status)
		})
	}
}

func TestDecodeJSON_ValidationDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":-1}`))
	var p payload

	var httpErr *HTTPError
	require.ErrorAs(t, DecodeJSON(req, &p), &httpErr)
	require.Equal(t, map[string]string{"name": "required", "count": "gte"}, httpErr.Details)
}

func TestDecodeOptionalJSON(t *testing.T) {
	unsized := func(body string) io.Reader { return io.MultiReader(strings.NewReader(body)) }

	t.Run("no body", func(t *testing.T) {
		p := payload{Name: "keep"}
		require.NoError(t, DecodeOptionalJSON(httptest.NewRequest(http.MethodPost, "/", nil), &p))
		require.Equal(t, "keep", p.Name)
	})

	t.Run("empty chunked body", func(t *testing.T) {
		p := payload{Name: "keep"}
		require.NoError(t, DecodeOptionalJSON(httptest.NewRequest(http.MethodPost, "/", unsized("")), &p))
		require.Equal(t, "keep", p.Name)
	})

	t.Run("chunked body", func(t *testing.T) {
		var p payload
		require.NoError(t, DecodeOptionalJSON(httptest.NewRequest(http.MethodPost, "/", unsized(`{"name":"abc"}`)), &p))
		require.Equal(t, "abc", p.Name)
	})

	t.Run("still validated", func(t *testing.T) {
		var p payload
		err := DecodeOptionalJSON(httptest.NewRequest(http.MethodPost, "/", unsized(`{"name":"abcdefg"}`)), &p)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusBadRequest, httpErr.Status)
	})
}

func TestDecodeJSON_EmptyChunkedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", io.MultiReader(strings.NewReader("")))
	var p payload

	var httpErr *HTTPError
	require.ErrorAs(t, DecodeJSON(req, &p), &httpErr)
	require.Equal(t, "Request body is required", httpErr.Message)
}

func TestPathParam(t *testing.T) {
	r := chi.NewRouter()
	var got string
	var gotErr error
	r.Get("/rooms/{roomID}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = PathParam(req, "roomID")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms/ROOM-ABC123", nil))
	require.NoError(t, gotErr)
	require.Equal(t, "ROOM-ABC123", got)

	_, err := PathParam(httptest.NewRequest(http.MethodGet, "/", nil), "roomID")
	require.Error(t, err)
}
