package models

import "time"

// Institution is a tenant: an isolated customer organization. Every domain
// entity is partitioned by its id.
type Institution struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	FounderID string    `db:"founder_id" json:"founder_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
