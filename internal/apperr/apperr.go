// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("tracking code conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError lists the json names of fields that were missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// StorageFailure is any store error that is not one of the sentinel conditions.
type StorageFailure struct {
	Op  string
	Err error
}

func (e *StorageFailure) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// Storage classifies err: nil, sentinel and validation errors pass through
// untouched, everything else becomes a *StorageFailure.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnauthorized) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	var sf *StorageFailure
	if errors.As(err, &sf) {
		return err
	}
	return &StorageFailure{Op: op, Err: err}
}

func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
