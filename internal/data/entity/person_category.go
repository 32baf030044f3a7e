package entity

type PersonCategory struct {
	Record
	Name        string  `db:"name"`
	DiscountPct float64 `db:"discount_pct"`
}
