package database

import "time"

// Referral is a named campaign link, independent of signer records.
type Referral struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RefCode     string    `json:"refCode" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Email       *string   `json:"email"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
