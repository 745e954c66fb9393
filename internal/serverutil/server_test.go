package serverutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seyerrs "github.com/jdholdren/murmur/internal/errors"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/logger"
)

type nameReq struct {
	Name string `json:"name"`
}

func (r nameReq) Validate() error {
	if r.Name == "" {
		return seyerrs.E("invalid request", http.StatusBadRequest, seyerrs.Detail{Field: "name", Error: "required"})
	}
	return nil
}

func TestDecodeValid(t *testing.T) {
	got, err := DecodeValid[nameReq](strings.NewReader(`{"name": "alice"}`))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = DecodeValid[nameReq](strings.NewReader(`{"name": ""}`))
	var sErr *seyerrs.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusBadRequest, sErr.Status)
	assert.Len(t, sErr.Details, 1)

	_, err = DecodeValid[nameReq](strings.NewReader(`{`))
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusBadRequest, sErr.Status)
}

func TestHandlerFuncE_MapsCoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: fmt.Errorf("x: %w", murmur.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "invalid", err: fmt.Errorf("x: %w", murmur.ErrInvalidArgument), wantStatus: http.StatusBadRequest},
		{name: "corruption", err: fmt.Errorf("x: %w", murmur.ErrDataCorruption), wantStatus: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				rec = httptest.NewRecorder()
				req = httptest.NewRequest(http.MethodGet, "/", nil)
				h   = HandlerFuncE(func(http.ResponseWriter, *http.Request) error { return tt.err })
			)

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body seyerrs.Error
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestAccessLogMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(&buf, "json", "info")
	require.NoError(t, err)
	prev := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := ErrRouter{Router: mux.NewRouter()}
	r.Use(AccessLogMiddleware)
	r.HandleFuncE("/ping", func(w http.ResponseWriter, r *http.Request) error {
		return WriteJSON(w, http.StatusTeapot, struct{}{})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var completed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &completed))
	assert.Equal(t, "request completed", completed["msg"])
	assert.Equal(t, "req-123", completed["request_id"])
	assert.EqualValues(t, http.StatusTeapot, completed["status_code"])
}
