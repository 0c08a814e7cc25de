// Package errors defines the error taxonomy of the harvester.
//
// Every failure kind a harvest pass can produce has a typed error carrying
// the context needed to report it (identifier, source, field) and a sentinel
// value so callers can branch with errors.Is without type assertions:
//
//	if errors.Is(err, harvesterrors.ErrFetch) {
//	    // abort the pass, nothing was written
//	}
//
// # Propagation
//
//   - FetchError, ConfigError: abort the whole pass before any staging write.
//   - DataIntegrityError: the offending catalog item is dropped, the rest proceed.
//   - EmptyResultError: the pass becomes a no-op instead of a mass deletion.
//   - PersistenceError: isolated to one identifier while staging.
//   - ValidationError, IntegrityError: the record is marked failed, siblings continue.
package errors
