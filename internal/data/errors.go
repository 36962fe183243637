package data

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPayload is returned when a source answers 2xx with nothing usable.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrMissingField is returned when an expected field is absent.
	ErrMissingField = errors.New("missing field")
)

// SourceError describes a failed call to an upstream market or fee source.
type SourceError struct {
	Source     string
	StatusCode int
	Code       string
	Message    string
}

func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Source, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func statusError(source string, status int, text string) *SourceError {
	code := "API_ERROR"
	switch status {
	case 429:
		code = "RATE_LIMIT_EXCEEDED"
	case 401, 403:
		code = "UNAUTHORIZED"
	}
	return &SourceError{
		Source:     source,
		StatusCode: status,
		Code:       code,
		Message:    fmt.Sprintf("API returned status %d: %s", status, text),
	}
}
