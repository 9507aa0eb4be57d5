// Package errs holds the error kinds shared by the token, guard and identity
// layers. Callers wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
package errs

import "errors"

var (
	// ErrUnauthenticated means no token, a bad signature, an expired or a revoked token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the credentials were checked and did not match.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	// ErrConfiguration is a server side bug: a policy referenced metadata
	// nobody supplied. It must never be turned into an allow.
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
)

// Kind returns the sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range []error{
		ErrConfiguration,
		ErrNotFound,
		ErrUnauthenticated,
		ErrUnauthorized,
		ErrForbidden,
		ErrConflict,
		ErrValidation,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
