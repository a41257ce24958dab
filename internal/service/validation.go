package service

import (
	"strings"
	"unicode/utf8"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
)

// MaxMessageLength is the maximum number of characters accepted in the
// message field, counted before escaping.
const MaxMessageLength = 5000

// Validation error codes returned to clients.
const (
	CodeNameRequired    = "name_required"
	CodeEmailRequired   = "email_required"
	CodeMessageRequired = "message_required"
	CodeMessageTooLong  = "message_too_long"
)

// ValidationError reports a user-correctable problem with a submission.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Code
}

// Validate checks the required fields and the message length limit.
func Validate(in model.MessageInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return &ValidationError{Code: CodeNameRequired}
	case strings.TrimSpace(in.Email) == "":
		return &ValidationError{Code: CodeEmailRequired}
	case strings.TrimSpace(in.Message) == "":
		return &ValidationError{Code: CodeMessageRequired}
	case utf8.RuneCountInString(in.Message) > MaxMessageLength:
		return &ValidationError{Code: CodeMessageTooLong}
	}
	return nil
}

var markupEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Sanitize escapes the markup delimiters < and > and leaves everything else
// as submitted.
func Sanitize(s string) string {
	return markupEscaper.Replace(s)
}

func sanitizeInput(in model.MessageInput) model.MessageInput {
	in.Name = Sanitize(in.Name)
	in.Email = Sanitize(in.Email)
	in.Message = Sanitize(in.Message)
	return in
}
