package models

// Course is a catalog entry. DurationDays is the sole driver of enrollment
// end-date computation; the end date is fixed at enrollment time and not
// recomputed if the duration later changes.
type Course struct {
	ID            string  `db:"id" json:"id"`
	InstitutionID string  `db:"institution_id" json:"institution_id"`
	Name          string  `db:"name" json:"name"`
	Description   string  `db:"description" json:"description"`
	Category      string  `db:"category" json:"category"`
	DurationDays  int     `db:"duration_days" json:"duration_days"`
	Price         float64 `db:"price" json:"price"`
}

// CourseFilter encapsulates search parameters for the course catalog.
type CourseFilter struct {
	Search   string
	Category string
	Page     int
	PageSize int
}
