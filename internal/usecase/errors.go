package usecase

import (
	"errors"
	"time"

	"github.com/fantasysports/season-core/internal/platform/store"
)

// Sentinel errors forming the usecase-level taxonomy described in the
// spec's error handling design: Transient/Conflict are retried by
// callers, NotEligible/NotFound/InvalidInput map to user-visible HTTP
// codes, Integrity/Fatal are logged and the step is abandoned.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrConflict mirrors store.ErrConflict at the usecase boundary: a
	// CAS write lost the race. Callers reread and retry up to 3 times.
	ErrConflict = errors.New("conflict")
	// ErrTransient mirrors store.ErrTransient: a retryable infra
	// failure. Callers retry with exponential backoff, max 3 attempts.
	ErrTransient = errors.New("transient failure")
	// ErrIntegrity mirrors store.ErrIntegrity: a permanent invariant
	// violation. The current step is logged and abandoned, never
	// retried, and never allowed to crash the scheduler.
	ErrIntegrity = errors.New("integrity violation")
	// ErrNotEligible wraps a tournament.Reason so the HTTP layer can
	// surface it verbatim; see NotEligibleError below.
	ErrNotEligible = errors.New("not eligible")
)

// NotEligibleError carries the machine-readable reason code a rejected
// tournament entry attempt must surface to its caller. It wraps
// ErrNotEligible so errors.Is(err, ErrNotEligible) still works.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string {
	return "not eligible: " + e.Reason
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}

// MaxRetries bounds the Conflict/Transient retry loops used throughout
// the usecase layer (C2's contract: "caller retries ≤ 3×").
const MaxRetries = 3

// retryOnConflict runs fn up to MaxRetries times, retrying only on a
// lost CAS race or a retryable infra failure — recognized at either the
// store boundary (store.ErrConflict/ErrTransient, returned directly by
// repository implementations) or the usecase boundary (ErrConflict/
// ErrTransient, returned by usecase code wrapping a store error). A
// conflict is retried at once; a transient failure waits 50ms, then
// 100ms, before the next attempt. Any other error, or one that persists
// past the retry budget, is returned immediately.
func retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		retryable := errors.Is(err, ErrConflict) || errors.Is(err, ErrTransient) ||
			errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrTransient)
		if !retryable {
			return err
		}
		transient := errors.Is(err, ErrTransient) || errors.Is(err, store.ErrTransient)
		if transient && attempt+1 < MaxRetries {
			time.Sleep(time.Duration(50<<attempt) * time.Millisecond)
		}
	}
	return err
}
