package entity

type Hall struct {
	CatalogRecord
	Name        string `db:"name"`
	Rows        int    `db:"row_count"`
	SeatsPerRow int    `db:"seats_per_row"`
}
