package database

import "time"

// Counter holds the materialized signature total. One logical row is meant to
// exist; readers always pick the row with the highest id.
type Counter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Total     int       `json:"total" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updatedAt"`
}
