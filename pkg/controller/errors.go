package controller

import (
	"errors"
	"fmt"

	"github.com/homeroomhq/homeroom/pkg/client"
	"github.com/homeroomhq/homeroom/pkg/models"
)

// Verb names the operation in error messages.
type Verb string

const (
	VerbLoad   Verb = "load"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// FallbackMessage is shown when a failure carries no message of its own.
const FallbackMessage = "An unexpected error occurred"

var (
	ErrMissingID     = errors.New("missing id")
	ErrMissingParent = errors.New("missing parent id")
)

// OperationError is recorded and, for create, update and delete, returned
// when an operation fails. Message is the text meant for display; the
// server's response body is never part of it.
type OperationError struct {
	Kind    models.Kind
	Verb    Verb
	Message string
	Err     error

	seq uint64
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Seq orders errors across controllers sharing a Clock. Later errors have
// larger values.
func (e *OperationError) Seq() uint64 {
	return e.seq
}

// newOperationError maps err to its display message. A non-2xx response
// becomes "Failed to {verb} {entity}"; anything else keeps its own message.
func newOperationError(kind models.Kind, verb Verb, collection bool, err error) *OperationError {
	oe := &OperationError{Kind: kind, Verb: verb, Err: err}

	var se *client.StatusError
	switch {
	case errors.As(err, &se):
		entity := kind.Singular()
		if collection {
			entity = kind.Plural()
		}
		oe.Message = fmt.Sprintf("Failed to %s %s", verb, entity)
	case err != nil:
		oe.Message = err.Error()
	}
	if oe.Message == "" {
		oe.Message = FallbackMessage
	}
	return oe
}
