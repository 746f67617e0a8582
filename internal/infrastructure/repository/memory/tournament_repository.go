package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fantasysports/season-core/internal/domain/tournament"
	"github.com/fantasysports/season-core/internal/platform/store"
)

type TournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[string]tournament.Tournament
	entries     map[string][]tournament.Entry
}

func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{
		tournaments: make(map[string]tournament.Tournament),
		entries:     make(map[string][]tournament.Entry),
	}
}

func (r *TournamentRepository) GetByID(_ context.Context, id string) (tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tournaments[id]
	if !ok {
		return tournament.Tournament{}, store.ErrNotFound
	}
	return t, nil
}

func (r *TournamentRepository) Create(_ context.Context, t tournament.Tournament) (tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tournaments[t.ID]; exists {
		return tournament.Tournament{}, store.ErrConflict
	}
	if err := t.Validate(); err != nil {
		return tournament.Tournament{}, store.ErrIntegrity
	}
	t.Version = 1
	r.tournaments[t.ID] = t
	return t, nil
}

func (r *TournamentRepository) ListOpenForDivisionToday(_ context.Context, division int, dayStart, dayEnd time.Time) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0)
	for _, t := range r.tournaments {
		if t.Type != tournament.TypeDailyDivisionalCup || t.Division == nil || *t.Division != division {
			continue
		}
		if t.Status != tournament.StatusRegistrationOpen && t.Status != tournament.StatusInProgress {
			continue
		}
		if t.StartTime.Before(dayStart) || t.StartTime.After(dayEnd) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TournamentRepository) ListMidSeasonClassicForSeason(_ context.Context, seasonID string) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0)
	for _, t := range r.tournaments {
		if t.Type == tournament.TypeMidSeasonClassic {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TournamentRepository) ListDueForAutoStart(_ context.Context, now time.Time) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0)
	for _, t := range r.tournaments {
		if t.Status == tournament.StatusRegistrationOpen && !t.RegistrationDeadline.After(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TournamentRepository) UpdateStatus(_ context.Context, id string, expectedVersion int64, status tournament.Status) (tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tournaments[id]
	if !ok {
		return tournament.Tournament{}, store.ErrNotFound
	}
	if t.Version != expectedVersion {
		return tournament.Tournament{}, store.ErrConflict
	}
	t.Status = status
	t.Version++
	r.tournaments[id] = t
	return t, nil
}

func (r *TournamentRepository) AdvanceRound(_ context.Context, id string, expectedVersion int64, round int) (tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tournaments[id]
	if !ok {
		return tournament.Tournament{}, store.ErrNotFound
	}
	if t.Version != expectedVersion {
		return tournament.Tournament{}, store.ErrConflict
	}
	t.CurrentRound = round
	t.Version++
	r.tournaments[id] = t
	return t, nil
}

func (r *TournamentRepository) Complete(_ context.Context, id string, expectedVersion int64) (tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tournaments[id]
	if !ok {
		return tournament.Tournament{}, store.ErrNotFound
	}
	if t.Version != expectedVersion {
		return tournament.Tournament{}, store.ErrConflict
	}
	t.Status = tournament.StatusCompleted
	t.Version++
	r.tournaments[id] = t
	return t, nil
}

func (r *TournamentRepository) ListEntries(_ context.Context, tournamentID string) ([]tournament.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Entry, len(r.entries[tournamentID]))
	copy(out, r.entries[tournamentID])
	return out, nil
}

func (r *TournamentRepository) AddEntry(_ context.Context, e tournament.Entry) (tournament.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[e.TournamentID] = append(r.entries[e.TournamentID], e)
	return e, nil
}

func (r *TournamentRepository) SetFinalRank(_ context.Context, entryID string, rank int) (tournament.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tid, entries := range r.entries {
		for i, e := range entries {
			if e.ID == entryID {
				e.FinalRank = &rank
				r.entries[tid][i] = e
				return e, nil
			}
		}
	}
	return tournament.Entry{}, store.ErrNotFound
}
