package llm

import (
	"errors"
	"fmt"
)

// ProviderError carries the HTTP status a provider answered with. Callers use
// it to decide between retrying and giving up.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the provider status from err, or 0 when the failure
// never reached the provider (transport error, cancelled context).
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// Truncate shortens provider bodies before they end up in errors and logs.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
