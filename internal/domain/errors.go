package domain

import (
	"errors"
	"strings"
)

// Authorization failures.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Input failures.
var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidPayload = errors.New("invalid request payload")
	ErrOutOfBounds    = errors.New("coordinates outside serviceable region")
	ErrInvalidMonth   = errors.New("unrecognized month name")
)

// Collaborator failures.
var (
	ErrUpstream    = errors.New("prediction service failure")
	ErrPersistence = errors.New("persistence failure")
)

// Account and record lookups.
var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnknownEmail  = errors.New("email not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidInput  = errors.New("invalid input")
)

// MissingFieldsError lists the required payload fields that were absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingField }

// InputError carries a user-facing validation message.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }
