package postgres

import "time"

type seasonTableModel struct {
	ID           string    `db:"id"`
	StartDateUTC time.Time `db:"start_date_utc"`
	CurrentDay   int       `db:"current_day"`
	Phase        string    `db:"phase"`
	Version      int64     `db:"version"`
}
