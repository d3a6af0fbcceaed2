package router

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	apperrors "bizdesk/internal/errors"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantLog    bool
	}{
		{"domain not found", fmt.Errorf("get: %w", apperrors.ErrNotFound), http.StatusNotFound, `{"error":"resource not found","code":"NOT_FOUND"}`, false},
		{"field validation", apperrors.NewValidationError("date", "bad date"), http.StatusBadRequest, `{"error":"date: bad date","code":"VALIDATION_ERROR"}`, false},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, `{"error":"too many requests","code":"RATE_LIMITED"}`, false},
		{"echo method not allowed", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, `{"error":"Method Not Allowed","code":"METHOD_NOT_ALLOWED"}`, false},
		{"echo body too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, `{"error":"Request Entity Too Large","code":"REQUEST_ENTITY_TOO_LARGE"}`, false},
		{"unexpected", errors.New("dial tcp 10.0.0.1: refused"), http.StatusInternalServerError, `{"error":"internal server error","code":"INTERNAL_ERROR"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

			NewHTTPErrorHandler(zerolog.New(&logs))(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			if tt.wantLog {
				assert.Contains(t, logs.String(), "refused")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusAccepted, "done")

	NewHTTPErrorHandler(zerolog.Nop())(apperrors.ErrNotFound, c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
