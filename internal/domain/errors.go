package domain

import "errors"

var (
	// ErrNotFound marks reads/ops on a key that does not exist. Callers are
	// expected to treat it as "nothing to do" unless their contract says
	// otherwise.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks an admin-only operation invoked by a non-admin.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrGenerationFailed wraps text/meme generation collaborator failures.
	ErrGenerationFailed = errors.New("generation failed")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
