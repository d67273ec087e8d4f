package billing

import (
	"fmt"
)

// VerificationError means the webhook signature header was missing or did
// not match the payload. Nothing from such a request may be trusted.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// ParseError means a signed event of a known type had an unexpected shape.
type ParseError struct {
	EventType string
	Reason    string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s event: %s: %v", e.EventType, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s event: %s", e.EventType, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
