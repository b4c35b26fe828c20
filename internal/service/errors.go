package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")

	// both are rejections of the request, so they also match ErrValidation
	ErrProductUnavailable = fmt.Errorf("product unavailable: %w", ErrValidation)
	ErrInsufficientStock  = fmt.Errorf("insufficient stock: %w", ErrValidation)
)

// Error carries a message meant for the client next to its sentinel kind.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func fail(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}
