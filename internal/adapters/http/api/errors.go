package api

import (
	"errors"
	"net/http"

	"github.com/okian/coffeerun/internal/adapters/repository"
	service "github.com/okian/coffeerun/internal/app"
	"github.com/okian/coffeerun/internal/domain/race"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error tags a failure with the operation that produced it and a sentinel
// kind used to pick the HTTP status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// NewKind builds an error of kind with a message.
func NewKind(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Err: errors.New(msg)}
}

// WrapKind tags err with op and kind. A nil err stays nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusOf maps an error to its HTTP status and machine-readable code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, race.ErrNotCompleted), errors.Is(err, race.ErrNotStarted):
		return http.StatusConflict, "not_completed"
	case errors.Is(err, race.ErrNoRunners):
		return http.StatusUnprocessableEntity, "no_runners"
	case errors.Is(err, repository.ErrCapacity), errors.Is(err, service.ErrNotRunning):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
