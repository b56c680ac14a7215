package fetch

import "fmt"

// StatusError captures non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("GET %s failed: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s failed: status %d: %s", e.URL, e.StatusCode, e.Body)
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
