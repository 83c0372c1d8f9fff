package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates login failure. Unknown email, wrong
	// password and disabled accounts all surface as this error so the
	// response never reveals which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the target record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates an authorization denial.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest indicates malformed or invalid input.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized indicates a missing or unresolvable token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Forbiddenf wraps ErrForbidden with the reason for the specific rule
// that denied the operation.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// BadRequestf wraps ErrBadRequest with a description of the invalid input.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Reason strips the sentinel prefix from a wrapped error, leaving the
// human-readable detail for the HTTP response body.
func Reason(err error) string {
	for _, sentinel := range []error{ErrForbidden, ErrBadRequest} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
