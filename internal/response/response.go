// ===============================
// FILE: internal/response/response.go
// ===============================

package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"threadhub/internal/contextutils"
	"threadhub/internal/services"
)

// Config tunes the response envelope.
type Config struct {
	PrettyJSON         bool   `json:"pretty_json"`
	IncludeRequestID   bool   `json:"include_request_id"`
	IncludeTimestamp   bool   `json:"include_timestamp"`
	APIVersion         string `json:"api_version"`
	MaskInternalErrors bool   `json:"mask_internal_errors"`
}

// DefaultConfig returns production response settings.
func DefaultConfig() *Config {
	return &Config{
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		APIVersion:         "v1",
		MaskInternalErrors: true,
	}
}

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Version   string       `json:"version,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []services.FieldError  `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Builder writes enveloped JSON responses.
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a response builder.
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{config: config, logger: logger}
}

// ===============================
// SUCCESS RESPONSES
// ===============================

// WriteSuccess writes a 200 with data.
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.writeJSON(w, r, b.envelope(r, data, nil), http.StatusOK)
}

// WriteCreated writes a 201 with data.
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.writeJSON(w, r, b.envelope(r, data, nil), http.StatusCreated)
}

// WriteNoContent writes a 204.
func (b *Builder) WriteNoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// ===============================
// ERROR RESPONSES
// ===============================

// WriteError maps a service error onto its status code. Unknown
// errors become masked 500s.
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr, ok := services.GetServiceError(err)
	if !ok {
		b.logger.Error("unclassified error reached response layer",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", contextutils.GetRequestID(r.Context())),
		)
		b.WriteInternalError(w, r, "internal server error")
		return
	}

	detail := &ErrorDetail{
		Type:    svcErr.Type,
		Message: svcErr.Message,
		Code:    svcErr.Code,
		Details: svcErr.Details,
	}
	if valErr, ok := err.(*services.ValidationError); ok {
		detail.Fields = valErr.Fields
	}

	status := svcErr.GetStatusCode()
	if status >= 500 {
		b.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", contextutils.GetRequestID(r.Context())),
		)
		if b.config.MaskInternalErrors {
			detail.Message = "internal server error"
			detail.Details = nil
		}
	}

	b.writeJSON(w, r, b.envelope(r, nil, detail), status)
}

// WriteUnauthorized writes a 401.
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	b.writeJSON(w, r, b.envelope(r, nil, &ErrorDetail{
		Type:    services.ErrTypeUnauthorized,
		Message: message,
	}), http.StatusUnauthorized)
}

// WriteForbidden writes a 403.
func (b *Builder) WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	b.writeJSON(w, r, b.envelope(r, nil, &ErrorDetail{
		Type:    services.ErrTypeForbidden,
		Message: message,
	}), http.StatusForbidden)
}

// WriteRateLimited writes a 429.
func (b *Builder) WriteRateLimited(w http.ResponseWriter, r *http.Request, message string) {
	b.writeJSON(w, r, b.envelope(r, nil, &ErrorDetail{
		Type:    services.ErrTypeRateLimit,
		Message: message,
	}), http.StatusTooManyRequests)
}

// WriteInternalError writes a 500.
func (b *Builder) WriteInternalError(w http.ResponseWriter, r *http.Request, message string) {
	b.writeJSON(w, r, b.envelope(r, nil, &ErrorDetail{
		Type:    services.ErrTypeInternal,
		Message: message,
	}), http.StatusInternalServerError)
}

// WriteValidationError writes a 400 with field detail.
func (b *Builder) WriteValidationError(w http.ResponseWriter, r *http.Request, message string, fields []services.FieldError) {
	b.writeJSON(w, r, b.envelope(r, nil, &ErrorDetail{
		Type:    services.ErrTypeValidation,
		Message: message,
		Fields:  fields,
	}), http.StatusBadRequest)
}

// ===============================
// INTERNALS
// ===============================

func (b *Builder) envelope(r *http.Request, data interface{}, errDetail *ErrorDetail) *APIResponse {
	resp := &APIResponse{
		Success: errDetail == nil,
		Data:    data,
		Error:   errDetail,
		Version: b.config.APIVersion,
	}
	if b.config.IncludeRequestID {
		resp.RequestID = contextutils.GetRequestID(r.Context())
	}
	if b.config.IncludeTimestamp {
		resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return resp
}

func (b *Builder) writeJSON(w http.ResponseWriter, r *http.Request, resp *APIResponse, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(resp); err != nil {
		b.logger.Error("failed to encode response",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
	}
}
