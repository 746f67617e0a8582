package postgres

import "time"

type gameTableModel struct {
	ID           string    `db:"id"`
	HomeTeamID   string    `db:"home_team_id"`
	AwayTeamID   string    `db:"away_team_id"`
	MatchType    string    `db:"match_type"`
	Status       string    `db:"status"`
	GameDate     time.Time `db:"game_date"`
	HomeScore    int       `db:"home_score"`
	AwayScore    int       `db:"away_score"`
	GameTime     int       `db:"game_time"`
	TournamentID *string   `db:"tournament_id"`
	Round        *int      `db:"round"`
	Recovered    bool      `db:"recovered"`
	Version      int64     `db:"version"`
}
