package monzo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int

	// Code is the provider error code, e.g. "bad_request.evicted_refresh_token".
	Code string

	Message string

	// Body is the raw response body, kept because not every error is JSON.
	Body string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("monzo: %d %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("monzo: %d %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("monzo: unexpected status %d", e.StatusCode)
	}
}

// IsEvicted reports whether a refresh was rejected because the refresh token
// was already used or superseded.
func (e *APIError) IsEvicted() bool {
	return e.StatusCode == http.StatusBadRequest && strings.Contains(e.Body, "evicted")
}

// IsEvicted reports whether err wraps an eviction response.
func IsEvicted(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsEvicted()
}

func parseErrorResponse(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		if apiErr.Code == "" {
			apiErr.Code = payload.Error
		}
		apiErr.Message = payload.Message
	}

	return apiErr
}
