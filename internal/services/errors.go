package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse           = errors.New("parse error")
	ErrValidation      = errors.New("validation error")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrAlreadyLocked   = errors.New("already locked")
	ErrNotLockedByUser = errors.New("not locked by user")
	ErrNotFound        = errors.New("not found")
	ErrExternalTool    = errors.New("external tool error")
	ErrConfiguration   = errors.New("configuration error")
	ErrBusy            = errors.New("busy")
)

// ParseError reports malformed glyph XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// ValidationError reports structurally valid input that breaks a domain rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateNameError reports a (font, name) or (glif, group_name, name) clash.
type DuplicateNameError struct {
	Kind  string
	Name  string
	Scope string
}

func (e *DuplicateNameError) Error() string {
	msg := fmt.Sprintf("%s: %s %q already exists", ErrDuplicateName, e.Kind, e.Name)
	if e.Scope != "" {
		msg += " in " + e.Scope
	}
	return msg
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// AlreadyLockedError reports a lock attempt on a glif someone already holds.
type AlreadyLockedError struct {
	Kind     string
	Name     string
	LockedBy string
}

func (e *AlreadyLockedError) Error() string {
	if e.LockedBy == "" {
		return fmt.Sprintf("%s: %s %q", ErrAlreadyLocked, e.Kind, e.Name)
	}
	return fmt.Sprintf("%s: %s %q is locked by %s", ErrAlreadyLocked, e.Kind, e.Name, e.LockedBy)
}

func (e *AlreadyLockedError) Unwrap() error { return ErrAlreadyLocked }

// NotLockedByUserError reports a mutation or unlock by a user who does not hold the lock.
type NotLockedByUserError struct {
	Kind     string
	Name     string
	Username string
}

func (e *NotLockedByUserError) Error() string {
	return fmt.Sprintf("%s: %s %q is not locked by %s", ErrNotLockedByUser, e.Kind, e.Name, e.Username)
}

func (e *NotLockedByUserError) Unwrap() error { return ErrNotLockedByUser }

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the machine-distinguishable kind for err, or "internal" when
// no marker matches.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrAlreadyLocked):
		return "already_locked"
	case errors.Is(err, ErrNotLockedByUser):
		return "not_locked_by_user"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrExternalTool):
		return "external_tool_error"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
