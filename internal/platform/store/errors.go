// Package store defines the persistence gateway's transaction contract
// and the error taxonomy every repository implementation (postgres,
// in-memory) must honor: Conflict for CAS misses, NotFound, Integrity
// for invariant violations, and Transient for retryable I/O failures.
package store

import (
	"context"
	"errors"
)

var (
	// ErrConflict signals a CAS write lost the race against a concurrent
	// mutation. Callers should reread and retry up to 3 times.
	ErrConflict = errors.New("cas conflict")
	// ErrNotFound signals the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity signals a permanent invariant violation; the caller
	// must log and abort the current step, never retry.
	ErrIntegrity = errors.New("integrity violation")
	// ErrTransient signals a retryable infrastructure failure (timeout,
	// connection reset). Callers retry with exponential backoff, max 3.
	ErrTransient = errors.New("transient store failure")
)

// Tx is the minimal transaction handle a Gateway hands out; it either
// commits atomically or is rolled back in full.
type Tx interface {
	Commit() error
	Rollback() error
}

// Gateway begins transactions for callers that need to span several
// repository calls atomically (e.g. a standings rebuild per subdivision,
// or a tournament completion + prize payout). No type in this module
// implements it; each repository method runs as its own statement,
// outside any shared transaction.
type Gateway interface {
	BeginTx(ctx context.Context) (context.Context, Tx, error)
}
