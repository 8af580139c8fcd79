package errors

import (
	// Go Internal Packages
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers that branch on failure class
// rather than on the exact message.
type Kind string

const (
	Invalid     Kind = "invalid"     // local validation failure, no remote call was made
	Initiation  Kind = "initiation"  // remote rejected or never received the initiation
	Transient   Kind = "transient"   // a single poll failed, the loop keeps going
	Timeout     Kind = "timeout"     // polling budget exhausted without a terminal status
	Declined    Kind = "declined"    // remote reports failed/cancelled
	Unavailable Kind = "unavailable" // dependency (redis/mongo/kafka) unreachable
	Internal    Kind = "internal"
)

// Error is the concrete error type carried through the module.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error from a kind, a message and an optional cause.
func E(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(kind Kind, err error) bool {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		return Is(kind, e.Err)
	}
	return false
}

// ValidationErrors accumulates per-field validation failures so a caller
// can report all of them in one pass.
type ValidationErrors struct {
	fields map[string][]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add records a failure for the given field.
func (v *ValidationErrors) Add(field, message string) {
	v.fields[field] = append(v.fields[field], message)
}

// Err returns nil when no failure was recorded, otherwise a single error
// listing every field in deterministic order.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.fields[k], ", ")))
	}
	return errors.New(strings.Join(parts, "; "))
}
