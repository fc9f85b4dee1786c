//
//
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/ingest"
	"github.com/visitor-flow/vfc/internal/stream"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// API error codes for transport conditions
var (
	ErrBadRequest      = errors.New("BAD_REQUEST")
	ErrPayloadTooLarge = errors.New("PAYLOAD_TOO_LARGE")
)

// NewAPIError creates a new API error.
func NewAPIError(code, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToAPIError converts an error to an HTTP status code and JSON envelope.
func ToAPIError(err error) (int, []byte) {
	if err == nil {
		return http.StatusOK, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, marshalErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	}

	switch {
	case errors.Is(err, ingest.ErrMalformed), errors.Is(err, eventlog.ErrInvalidEvent):
		return http.StatusBadRequest, marshalErrorResponse("MALFORMED", "Expected {\"group_size\": <positive integer>}", nil)
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, marshalErrorResponse("BAD_REQUEST", "Malformed request", nil)
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, marshalErrorResponse("PAYLOAD_TOO_LARGE", "Request body too large", nil)
	case errors.Is(err, ingest.ErrRateLimited):
		return http.StatusTooManyRequests, marshalErrorResponse("RATE_LIMITED", "Too many submissions, retry later", nil)
	case errors.Is(err, ingest.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, marshalErrorResponse("STORE_UNAVAILABLE", "Event log is temporarily unavailable", nil)
	case errors.Is(err, stream.ErrStreamingUnsupported):
		return http.StatusInternalServerError, marshalErrorResponse("STREAMING_UNSUPPORTED", "Streaming is not supported by this connection", nil)
	}

	return http.StatusInternalServerError, marshalErrorResponse("INTERNAL", "Internal server error", map[string]interface{}{
		"original": err.Error(),
	})
}

func marshalErrorResponse(code, message string, details interface{}) []byte {
	data, err := json.Marshal(ErrorResponse(code, message, details))
	if err != nil {
		fallback := map[string]interface{}{
			"result":        "error",
			"code":          "INTERNAL",
			"message":       "Failed to marshal error response",
			"correlationId": generateCorrelationID(),
		}
		data, _ = json.Marshal(fallback)
	}
	return data
}
