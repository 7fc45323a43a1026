// Package apperrors defines the error-category sentinels that every
// component returns instead of panicking, so the Scheduler's circuit
// breaker and the Write Batcher's retry logic can switch on category with
// errors.Is rather than string matching.
package apperrors

import "errors"

var (
	// ErrTransientUpstream covers feed timeouts, 5xx responses, and
	// connection failures that are worth retrying on the next tick.
	ErrTransientUpstream = errors.New("transient upstream failure")

	// ErrMalformedRecord marks a single feed record that failed schema
	// validation (missing callsign, out-of-range numeric field). The
	// record is skipped; the rest of the snapshot is still processed.
	ErrMalformedRecord = errors.New("malformed feed record")

	// ErrReferenceDataMissing marks an airspace lookup (airport, sector)
	// that could not be resolved. Callers disable the dependent detector
	// for that entity only.
	ErrReferenceDataMissing = errors.New("reference data missing")

	// ErrPersistenceTransient covers deadlocks and statement timeouts
	// that the Write Batcher retries with backoff.
	ErrPersistenceTransient = errors.New("transient persistence failure")

	// ErrPersistenceIntegrity covers constraint violations. The offending
	// row is dropped from the batch; the rest commits.
	ErrPersistenceIntegrity = errors.New("persistence integrity violation")

	// ErrConfigInvalid is returned by config.Load and causes the process
	// to fail fast at startup.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvariantViolation marks an internal bug (double-open occupancy
	// row, conflicting status writer) that the engine logs and
	// self-corrects from rather than propagating.
	ErrInvariantViolation = errors.New("internal invariant violation")
)
