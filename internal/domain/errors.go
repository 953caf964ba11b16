package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeOpenShiftExists    = "OPEN_SHIFT_EXISTS"
	CodeNoActiveShift      = "NO_ACTIVE_SHIFT"
	CodeBadAuth            = "BAD_AUTH"
	CodeAlreadyFinalized   = "ALREADY_FINALIZED"
	CodeAlreadyClosed      = "ALREADY_CLOSED"
	CodeStationsIncomplete = "STATIONS_INCOMPLETE"
	CodeNotRegistered      = "NOT_REGISTERED"
	CodeStationInactive    = "STATION_INACTIVE"
	CodeInvalidInput       = "INVALID_INPUT"
)

// FieldError is a workflow or input violation the user can fix by acting in
// the right order. Two FieldErrors match under errors.Is when codes match.
type FieldError struct {
	Code    string   `json:"code"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	var other *FieldError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	ErrOpenShiftExists    = &FieldError{Code: CodeOpenShiftExists, Message: "an open shift already exists"}
	ErrNoActiveShift      = &FieldError{Code: CodeNoActiveShift, Message: "no active shift"}
	ErrBadAuth            = &FieldError{Code: CodeBadAuth, Field: "auth_password", Message: "verification password incorrect"}
	ErrAlreadyFinalized   = &FieldError{Code: CodeAlreadyFinalized, Field: "business_date", Message: "business date already finalized"}
	ErrAlreadyClosed      = &FieldError{Code: CodeAlreadyClosed, Field: "business_date", Message: "station already closed for business date"}
	ErrStationsIncomplete = &FieldError{Code: CodeStationsIncomplete, Field: "business_date", Message: "not every involved station has closed"}
	ErrNotRegistered      = &FieldError{Code: CodeNotRegistered, Field: "device_fingerprint", Message: "station not registered"}
	ErrStationInactive    = &FieldError{Code: CodeStationInactive, Field: "device_fingerprint", Message: "station is inactive"}
	ErrInvalidInput       = &FieldError{Code: CodeInvalidInput, Message: "invalid input"}
)

// NewFieldError builds a FieldError for a specific field.
func NewFieldError(code string, field string, message string) *FieldError {
	return &FieldError{Code: code, Field: field, Message: message}
}

// InvalidInput is shorthand for an INVALID_INPUT error naming the field.
func InvalidInput(field string, message string) *FieldError {
	return NewFieldError(CodeInvalidInput, field, message)
}

// StationsIncomplete reports the involved stations that have not closed yet.
func StationsIncomplete(missing []string) *FieldError {
	return &FieldError{
		Code:    CodeStationsIncomplete,
		Field:   "business_date",
		Message: "stations not closed: " + strings.Join(missing, ", "),
		Missing: append([]string(nil), missing...),
	}
}

// OpenShiftExistsFor names the field that triggered the open-shift rejection.
func OpenShiftExistsFor(field string) *FieldError {
	return NewFieldError(CodeOpenShiftExists, field, "close every open shift first")
}
