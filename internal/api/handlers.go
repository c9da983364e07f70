package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/listcheck/internal/engine"
)

// Validator runs the validation pipeline. *engine.Engine implements it.
type Validator interface {
	ValidateBulk(ctx context.Context, emails []string) (*engine.BulkValidationResult, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	validator    Validator
	maxBatchSize int
	startTime    time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(validator Validator, maxBatchSize int) *Handlers {
	if maxBatchSize <= 0 {
		maxBatchSize = 1000
	}
	return &Handlers{
		validator:    validator,
		maxBatchSize: maxBatchSize,
		startTime:    time.Now(),
	}
}

// ValidateRequest is the body of POST /api/validate
type ValidateRequest struct {
	Emails []string `json:"emails"`
}

// HandleValidate validates a batch of email addresses.
//
//	POST /api/validate
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Emails) == 0 {
		respondError(w, http.StatusBadRequest, "emails must not be empty")
		return
	}
	if len(req.Emails) > h.maxBatchSize {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("batch exceeds maximum size of %d", h.maxBatchSize))
		return
	}

	// ValidateBulk returns a complete result set even when the request
	// context is canceled, and a gone client cannot read an error anyway.
	result, _ := h.validator.ValidateBulk(r.Context(), req.Emails)
	respondJSON(w, http.StatusOK, result)
}

// HealthCheck returns basic service liveness.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
