package giantbomb

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrEmptyResponse indicates the API returned no body or a body
	// that could not be decoded as an envelope.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrMissingAPIKey indicates the client was built without a credential.
	ErrMissingAPIKey = errors.New("API key is required")
)

// APIError represents a business-logic failure reported by the remote
// API through its envelope status.
type APIError struct {
	StatusCode int
	Message    string
	Signature  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d for %s: %s", e.StatusCode, e.Signature, e.Message)
}

// TransportError represents a network or HTTP-level failure. The
// request signature is attached for context; the credential never is.
type TransportError struct {
	Signature string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.Signature, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
