// Package services defines the business logic for invoices: the create,
// update and delete actions submitted from the dashboard forms, and the read
// models behind the dashboard pages.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched (errors.Is) by every *ValidationError.
	ErrValidation = errors.New("invalid invoice form")

	// ErrPersistence is matched (errors.Is) by every *PersistenceError.
	ErrPersistence = errors.New("invoice persistence failed")

	// ErrInvoiceNotFound indicates that the requested invoice does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// FieldIssue describes why a single form field was rejected.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a submitted form does not satisfy the
// invoice schema. No statement is issued when it is returned.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError wraps the store error raised by a write. The original
// cause stays reachable through errors.Is/errors.As.
type PersistenceError struct {
	Op  string // insert|update|delete
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s invoice: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) true.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
