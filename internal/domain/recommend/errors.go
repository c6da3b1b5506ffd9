package recommend

import (
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/echopicks/internal/infra/llm"
)

// MsgRequired is the client-facing message for a missing field.
const MsgRequired = "Category and title are required"

// ValidationError is returned for client-fixable input problems. No outbound
// call has been made when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ProviderError is returned when the generative-text call fails or times out.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generative-text provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Raw returns the diagnostic payload for clients: the provider's response
// body when it answered with an error status, otherwise the error text.
func (e *ProviderError) Raw() string {
	var se *llm.StatusError
	if errors.As(e.Err, &se) && se.Body != "" {
		return se.Body
	}
	return e.Err.Error()
}

// ParseError is returned when the model output is not a non-empty JSON array.
// Raw holds the model text unmodified.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
