package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suntennis/tournament-site/internal/service"
)

func TestFromError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"Validation", &service.ValidationError{Message: "bracket size must be a power of two"}, http.StatusBadRequest, "bracket size must be a power of two"},
		{"Not found", fmt.Errorf("match: %w", service.ErrNotFound), http.StatusNotFound, "match: requested resource not found"},
		{"Forbidden", service.ErrForbidden, http.StatusForbidden, service.ErrForbidden.Error()},
		{"Credentials", service.ErrInvalidCredentials, http.StatusBadRequest, "invalid email or password"},
		{"Store failure", errors.New("database is locked"), http.StatusInternalServerError, "Failed to save match"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, "Failed to save match", tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantBody, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"slug": "suntennis-2025"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"slug":"suntennis-2025"}`, rec.Body.String())
}
