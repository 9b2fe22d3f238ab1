package syncerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error by how far it is allowed to propagate. Page scoped
// kinds are recorded against one page, fatal kinds stop the whole run.
type Kind string

const (
	KindUnknown       Kind = "UNKNOWN"
	KindTransientAPI  Kind = "TRANSIENT_API"
	KindFatalAPI      Kind = "FATAL_API"
	KindAPI           Kind = "API"
	KindFilesystem    Kind = "FILESYSTEM"
	KindConversion    Kind = "CONVERSION"
	KindConfiguration Kind = "CONFIGURATION"
	KindCancelled     Kind = "CANCELLED"
)

// Error carries the kind and the page it belongs to, if any.
type Error struct {
	Kind      Kind
	PageID    string
	Op        string
	BlockType string
	Hint      string
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.BlockType != "" {
		msg += fmt.Sprintf(" (block type %s)", e.BlockType)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPage returns a copy of e attached to pageID.
func (e *Error) WithPage(pageID string) *Error {
	c := *e
	c.PageID = pageID
	return &c
}

// WithHint returns a copy of e with a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// Conversion is returned by the converter when the quality level refuses a
// block it cannot render.
func Conversion(blockType, blockID string) *Error {
	return &Error{
		Kind:      KindConversion,
		Op:        "convert block " + blockID,
		BlockType: blockType,
		Err:       errors.New("unsupported block under strict quality level"),
	}
}

// Configuration wraps a validation failure found before the run starts.
func Configuration(format string, args ...interface{}) *Error {
	return &Error{
		Kind: KindConfiguration,
		Op:   "validate configuration",
		Err:  fmt.Errorf(format, args...),
	}
}

// KindOf returns the kind of the first Error in err's chain. Context
// cancellation maps to KindCancelled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransientAPI
	}
	return KindUnknown
}

// IsFatal reports whether err must stop dispatching further pages.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindFatalAPI, KindConfiguration:
		return true
	}
	return false
}

// IsRetryable reports whether the fetch layer should try again.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransientAPI
}

// PageOf returns the page the first Error in err's chain belongs to, "" for
// errors not scoped to a page.
func PageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.PageID
	}
	return ""
}
