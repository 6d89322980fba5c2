// Package common defines sentinel errors shared across the layers of
// identityd. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Directory errors. Unavailable is a transport or protocol failure and
	// must never stand in for a confirmed absence.
	ErrorDirectoryUnavailable = errors.New("directory unavailable")

	// ErrorServiceIdentity means the pre-seeded service identity that
	// authorizes directory operations cannot be resolved. This is a
	// deployment fault, not a per-request condition.
	ErrorServiceIdentity = errors.New("service identity not resolvable")

	// ErrorGroupSyncPartial marks a resolution whose user record was
	// committed but whose group synchronization was only partially applied.
	ErrorGroupSyncPartial = errors.New("group sync partially applied")

	// Generic internal failure.
	ErrorInternal = errors.New("internal error")
)
