package models

import "time"

// Camp scopes a registration history to one event and its external sheet.
type Camp struct {
	ID               string    `db:"id" json:"id"`
	Slug             string    `db:"slug" json:"slug"`
	Name             string    `db:"name" json:"name"`
	SheetID          string    `db:"sheet_id" json:"sheet_id"`
	LastRowProcessed int       `db:"last_row_processed" json:"last_row_processed"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CampFilter captures listing criteria for camps.
type CampFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
