package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnclassified is returned by classifiers that cannot map raw text to an event.
	ErrUnclassified = errors.New("unrecognized data entry")

	// ErrTerminal is returned when a transition is attempted after the FatalError mode was entered.
	ErrTerminal = errors.New("interaction state is terminal")

	// ErrInvalidMode is returned when a mode outside the closed set is requested.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrNotConfigured is returned when a required collaborator (such as the domain engine) is missing.
	ErrNotConfigured = errors.New("engine not configured")

	// ErrSettingNotFound is returned when a settings store holds no value for a key.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrLockAcquire is returned when a distributed lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
)

// ErrorCodeUI is the internal code given to errors synthesized by the interaction layer.
const ErrorCodeUI = "UI"

// MessageKeyUnexpected is rendered when an error carries no localizable message.
const MessageKeyUnexpected = "error.unexpected"

// Message is a localizable message: a translation key, its parameters and a fallback text.
type Message struct {
	Key     string         `json:"key"`
	Params  map[string]any `json:"params,omitempty"`
	Default string         `json:"default,omitempty"`
}

func (m Message) String() string {
	if m.Default != "" {
		return m.Default
	}
	return m.Key
}

// Localizable is implemented by errors able to present a localizable message.
type Localizable interface {
	LocalizableMessage() *Message
}

// QualificationError is an expected, soft rejection by the domain engine.
type QualificationError struct {
	Reason        Message
	CollectedData map[string]any
}

func (e *QualificationError) Error() string {
	return fmt.Sprintf("qualification failed: %s", e.Reason)
}

func (e *QualificationError) LocalizableMessage() *Message {
	return &e.Reason
}

// BusinessError carries a localizable message, a code and collected contextual data.
type BusinessError struct {
	Code          string
	Message       *Message
	CollectedData map[string]any
	Cause         error
}

func (e *BusinessError) Error() string {
	switch {
	case e.Message != nil:
		return fmt.Sprintf("business error %s: %s", e.Code, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("business error %s: %v", e.Code, e.Cause)
	default:
		return fmt.Sprintf("business error %s", e.Code)
	}
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

func (e *BusinessError) LocalizableMessage() *Message {
	return e.Message
}

// Normalize shapes any submission failure into the single error form stored as lastError.
// Qualification and business errors pass through unchanged. Other errors become a
// BusinessError with ErrorCodeUI: when they offer a localizable message it is kept,
// otherwise the raw text is wrapped in a plain error as the cause.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var qe *QualificationError
	var be *BusinessError
	if errors.As(err, &qe) || errors.As(err, &be) {
		return err
	}
	var loc Localizable
	if errors.As(err, &loc) {
		if msg := loc.LocalizableMessage(); msg != nil {
			return &BusinessError{Code: ErrorCodeUI, Message: msg, Cause: err}
		}
	}
	return &BusinessError{Code: ErrorCodeUI, Cause: errors.New(err.Error())}
}

// UserMessage returns what a screen should render for err: its localizable message
// when there is one, the generic unexpected-error message otherwise.
func UserMessage(err error) Message {
	var loc Localizable
	if errors.As(err, &loc) {
		if msg := loc.LocalizableMessage(); msg != nil {
			return *msg
		}
	}
	return Message{Key: MessageKeyUnexpected, Default: "An unexpected error occurred"}
}

// ErrorCode returns the business code of err, or "" for qualification and unknown errors.
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// MemberNotAllowedError is the business error raised when member assignment is attempted unattended.
func MemberNotAllowedError() *BusinessError {
	return &BusinessError{
		Code:    "MEMBER_NOT_ALLOWED",
		Message: &Message{Key: "error.memberNotAllowed", Default: "Member assignment is not allowed on this terminal"},
	}
}
