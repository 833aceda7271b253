package flashquiz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when a document is not PDF, DOCX or plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction is returned when a supported document cannot be read.
	ErrExtraction = errors.New("failed to extract text from document")

	// ErrNoContent is returned when a document yields no usable learning points.
	ErrNoContent = errors.New("document contains no extractable text")

	// ErrMalformedResponse is returned when a model reply is not a valid question.
	ErrMalformedResponse = errors.New("malformed question response")

	// ErrInvalidState is returned when a quiz operation is called out of sequence.
	ErrInvalidState = errors.New("invalid quiz state")

	// ErrInvalidAnswer is returned when an answer refers to a question or option that does not exist.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrSessionReplaced is returned when results arrive for a session that is no longer current.
	ErrSessionReplaced = errors.New("quiz session was replaced")
)

// APIError wraps a failure talking to the language-model provider
// (network, authentication, rate limiting). It is never retried.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("language model API error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("language model API error: %v", e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
