package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listcheck/internal/engine"
)

type stubValidator struct {
	got    []string
	result *engine.BulkValidationResult
	err    error
}

func (s *stubValidator) ValidateBulk(ctx context.Context, emails []string) (*engine.BulkValidationResult, error) {
	s.got = emails
	if s.result == nil {
		results := make([]engine.ValidationResult, len(emails))
		for i, email := range emails {
			results[i] = engine.ValidationResult{
				Email:              email,
				IsValid:            true,
				VerificationStatus: engine.StatusSuccess,
			}
		}
		return &engine.BulkValidationResult{
			Results: results,
			Stats:   engine.ValidationStatistics{Total: len(emails), Verified: len(emails)},
		}, s.err
	}
	return s.result, s.err
}

func postValidate(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/validate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleValidate(t *testing.T) {
	stub := &stubValidator{}
	handler := SetupRoutes(NewHandlers(stub, 1000))

	rec := postValidate(t, handler, `{"emails":["a@example.com","b@example.com"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, stub.got)

	var out engine.BulkValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, 2, out.Stats.Total)
	assert.Equal(t, "a@example.com", out.Results[0].Email)
}

func TestHandleValidateBadBody(t *testing.T) {
	handler := SetupRoutes(NewHandlers(&stubValidator{}, 1000))

	rec := postValidate(t, handler, `{"emails": not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleValidateEmptyBatch(t *testing.T) {
	handler := SetupRoutes(NewHandlers(&stubValidator{}, 1000))

	rec := postValidate(t, handler, `{"emails":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must not be empty")
}

func TestHandleValidateBatchTooLarge(t *testing.T) {
	handler := SetupRoutes(NewHandlers(&stubValidator{}, 2))

	rec := postValidate(t, handler, `{"emails":["a@x.com","b@x.com","c@x.com"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "maximum size of 2")
}

func TestHealthCheck(t *testing.T) {
	handler := SetupRoutes(NewHandlers(&stubValidator{}, 1000))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "healthy"))
}
