package dispatch

import "context"

// Repository persists the dispatch audit trail via C2.
type Repository interface {
	UpsertEvent(ctx context.Context, event Event) error
}
