package postgres

type playerTableModel struct {
	ID             string  `db:"id"`
	TeamID         string  `db:"team_id"`
	Age            int     `db:"age"`
	Speed          int     `db:"speed"`
	Power          int     `db:"power"`
	Throwing       int     `db:"throwing"`
	Catching       int     `db:"catching"`
	Kicking        int     `db:"kicking"`
	Stamina        int     `db:"stamina"`
	Leadership     int     `db:"leadership"`
	Agility        int     `db:"agility"`
	PotentialStars float64 `db:"potential_stars"`
	IsRetired      bool    `db:"is_retired"`
	Version        int64   `db:"version"`
}
