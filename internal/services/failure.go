package services

import (
	"errors"
	"fmt"

	"meetings/boardroom/internal/db/repositories"
)

type FailureKind string

const (
	KindNotFound   FailureKind = "not_found"
	KindConflict   FailureKind = "conflict"
	KindValidation FailureKind = "validation"
)

// Failure is a business-rule rejection. Callers report it to the client as
// an unsuccessful result rather than an error response.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string { return f.Message }

func notFound(entity string) *Failure {
	return &Failure{Kind: KindNotFound, Message: entity + " does not exist"}
}

func conflict(msg string) *Failure {
	return &Failure{Kind: KindConflict, Message: msg}
}

func alreadyExists(entity string) *Failure {
	return conflict(entity + " already exists")
}

func invalid(msg string) *Failure {
	return &Failure{Kind: KindValidation, Message: msg}
}

// AsFailure unwraps a Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// mapped turns repository sentinels into failures. Any other error is
// returned as is.
func mapped(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(entity)
	case errors.Is(err, repositories.ErrDuplicate):
		return alreadyExists(entity)
	default:
		return fmt.Errorf("%s: %w", entity, err)
	}
}

// Deleted reports the identity of a removed row.
type Deleted struct {
	ID uint `json:"id"`
}
