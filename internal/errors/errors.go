package errors

import (
	stderrors "errors"
)

// Sentinel errors for the lookup and favorites boundaries. Callers match
// with errors.Is and decide locally whether to drop the item, degrade to the
// fallback path, or surface an APIError.
var (
	// ErrUnauthenticated means the caller has no valid session. The
	// recommendation engine treats it as "cannot fetch favorites".
	ErrUnauthenticated = stderrors.New("no authenticated session")

	// ErrBookNotFound means OpenLibrary has no record for the requested ID.
	ErrBookNotFound = stderrors.New("book not found")

	// ErrUnavailable means a transient upstream failure (network, 5xx,
	// malformed payload). Always recoverable per-item.
	ErrUnavailable = stderrors.New("upstream temporarily unavailable")
)

// Is re-exports errors.Is so callers don't need a second import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
