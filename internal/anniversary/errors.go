package anniversary

import "fmt"

// APIError represents a failure reported by the game API itself as a
// JSON {"message": ...} envelope with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anniversary: API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// HTTPError represents a non-2xx HTTP response without an API envelope.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("anniversary: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited returns true if the status indicates rate limiting.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsRetryable returns true for rate limits (429) and server errors (5xx).
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// AuthError indicates an authentication failure (token or cookie
// expired or invalid).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("anniversary: authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}
