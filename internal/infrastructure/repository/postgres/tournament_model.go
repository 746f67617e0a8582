package postgres

import "time"

type tournamentTableModel struct {
	ID                   string    `db:"id"`
	Type                 string    `db:"type"`
	Division             *int      `db:"division"`
	MaxParticipants      int       `db:"max_participants"`
	Status               string    `db:"status"`
	RegistrationDeadline time.Time `db:"registration_deadline"`
	StartTime            time.Time `db:"start_time"`
	PrizePoolCredits     int64     `db:"prize_pool_credits"`
	RequiresEntryItem    bool      `db:"requires_entry_item"`
	EntryFeeCredits      int64     `db:"entry_fee_credits"`
	EntryFeeGems         int64     `db:"entry_fee_gems"`
	CurrentRound         int       `db:"current_round"`
	Version              int64     `db:"version"`
}

type tournamentEntryTableModel struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	TeamID       string `db:"team_id"`
	FinalRank    *int   `db:"final_rank"`
	Paid         bool   `db:"paid"`
	IsAIFill     bool   `db:"is_ai_fill"`
	Seed         int    `db:"seed"`
}
