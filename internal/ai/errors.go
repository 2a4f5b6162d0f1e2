package ai

import (
	"errors"
	"fmt"
	"strings"
)

// User facing categories for provider failures.
const (
	MsgInvalidAPIKey     = "Invalid Gemini API Key"
	MsgModelNotAvailable = "Model not available"
)

// CandidatesError reports that every model candidate failed.
type CandidatesError struct {
	Tried []string
	Last  error
}

func (e *CandidatesError) Error() string {
	return fmt.Sprintf("all %d model candidates failed: %v", len(e.Tried), e.Last)
}

func (e *CandidatesError) Unwrap() error { return e.Last }

// Categorize maps an error to the message shown to users. Matching is by
// substring on the innermost provider message.
func Categorize(err error) string {
	if err == nil {
		return ""
	}
	msg := Details(err)
	switch {
	case strings.Contains(msg, "API key"):
		return MsgInvalidAPIKey
	case strings.Contains(msg, "404"):
		return MsgModelNotAvailable
	default:
		return msg
	}
}

// Details returns the raw message of the last provider error.
func Details(err error) string {
	if err == nil {
		return ""
	}
	var ce *CandidatesError
	if errors.As(err, &ce) && ce.Last != nil {
		return ce.Last.Error()
	}
	return err.Error()
}
