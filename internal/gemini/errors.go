package gemini

import "fmt"

// HTTPError is a non-retryable HTTP failure from the Gemini API. 429 and 503
// are handled by backoff inside the client and never surface as HTTPError;
// everything else non-2xx does, immediately.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.StatusCode, e.Body)
}
