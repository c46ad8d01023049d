package services

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/desertthunder/skyplay/internal/shared"
)

// FallbackMessage is used when an error response carries no readable message.
const FallbackMessage = "HTTP fail"

// codeTokenNotValid is the error code the API returns for expired or malformed access tokens.
const codeTokenNotValid = "token_not_valid"

// APIError is a non-2xx catalog API response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is makes every APIError match [shared.ErrAPIRequest].
func (e *APIError) Is(target error) bool {
	return target == shared.ErrAPIRequest
}

// Expired reports whether the failure signals an expired or invalid access credential.
func (e *APIError) Expired() bool {
	if e.Status == http.StatusUnauthorized || e.Code == codeTokenNotValid {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "401") || strings.Contains(msg, "token") || strings.Contains(msg, "токен")
}

// errorBody is the JSON error shape; message takes precedence over detail.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Code    string `json:"code"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: FallbackMessage}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}

	apiErr.Code = eb.Code
	switch {
	case eb.Message != "":
		apiErr.Message = eb.Message
	case eb.Detail != "":
		apiErr.Message = eb.Detail
	}
	return apiErr
}
