package postgres

type teamTableModel struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Division    int    `db:"division"`
	Subdivision string `db:"subdivision"`
	Wins        int    `db:"wins"`
	Losses      int    `db:"losses"`
	Draws       int    `db:"draws"`
	Points      int    `db:"points"`
	Credits     int64  `db:"credits"`
	Gems        int64  `db:"gems"`
	Version     int64  `db:"version"`
}
