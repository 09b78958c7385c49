package stream

import "fmt"

// ProviderError is a structured error payload returned by the service.
// The message is surfaced verbatim.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Message)
}

// ParseError is an event payload that matched neither the completion nor
// the error shape. Payload carries a truncated copy of the raw bytes.
type ParseError struct {
	Payload string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse event payload: %q", e.Payload)
}
