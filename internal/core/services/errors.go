package services

import (
	"context"
	"errors"

	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/query"
)

// Error is the user-facing failure of a service call
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message extracts the user-facing text of err
func Message(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// normalize picks the message the user sees: the server's message,
// then the transport message, then the operation fallback.
func normalize(err error, fallback string) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	message := fallback
	if apiErr, ok := apiclient.AsError(err); ok {
		switch {
		case apiErr.ServerMessage != "":
			message = apiErr.ServerMessage
		case apiErr.Message != "":
			message = apiErr.Message
		}
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		message = "Request was cancelled"
	}
	return &Error{Message: message, Err: err}
}

// fail normalizes err and applies the 401 policy
func (d Deps) fail(err error, fallback string) *Error {
	d.handleUnauthorized(err)
	return normalize(err, fallback)
}

// read runs a cached read. Failures are toasted; a disabled read is
// returned as is without a toast.
func read[T any](ctx context.Context, d Deps, key query.Key, fallback string, fn func(ctx context.Context) (T, error), opts ...query.Option) (T, error) {
	v, err := query.Fetch(ctx, d.Queries, key, fn, opts...)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, query.ErrDisabled) {
		return v, err
	}
	if ctx.Err() != nil {
		// nobody is waiting for this result
		return v, err
	}

	svcErr := d.fail(err, fallback)
	d.Notify.Error(svcErr.Message)
	return v, svcErr
}

// mutate runs fn under a loading notification that resolves to success
// or error. Validation failures are returned before anything is shown.
func mutate[T any](d Deps, validate func() error, fallback string, msgs notify.PromiseMessages[T], fn func() (T, error)) (T, error) {
	if validate != nil {
		if err := validate(); err != nil {
			var zero T
			return zero, &Error{Message: validationMessage(err), Err: err}
		}
	}

	msgs.Error = func(err error) string { return Message(err) }
	return notify.Promise(d.Notify, func() (T, error) {
		v, err := fn()
		if err != nil {
			return v, d.fail(err, fallback)
		}
		return v, nil
	}, msgs)
}

func validationMessage(err error) string {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	return err.Error()
}
