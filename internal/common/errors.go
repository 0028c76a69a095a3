// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Pipeline errors.
	ErrSchema         = errors.New("schema error")
	ErrUnseenCategory = errors.New("unseen category")
	ErrNotFitted      = errors.New("pipeline not fitted")
	ErrEmptyInput     = errors.New("empty input")
	ErrNoTimestamps   = errors.New("no parseable timestamps")

	// Database errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SchemaError reports required columns that are absent from an input table.
type SchemaError struct {
	Stage   string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%v: missing columns [%s]", ErrSchema, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%v: %s: missing columns [%s]", ErrSchema, e.Stage, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// NewSchemaError creates a schema error for the given stage.
func NewSchemaError(stage string, missing ...string) error {
	return &SchemaError{Stage: stage, Missing: missing}
}

// UnseenCategoryError reports a categorical value that was not present when
// the encoder was fit.
type UnseenCategoryError struct {
	Column string
	Value  string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("%v: column %q has no code for value %q", ErrUnseenCategory, e.Column, e.Value)
}

func (e *UnseenCategoryError) Unwrap() error {
	return ErrUnseenCategory
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsSchemaError reports whether err was caused by a missing column.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}
