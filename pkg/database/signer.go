package database

import "time"

// Signer is created only once the signing provider confirms a completed
// signature. Rows are never updated after creation.
type Signer struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	City        string    `json:"city" gorm:"not null"`
	Role        string    `json:"role" gorm:"not null"`
	WantsInvite bool      `json:"wantsInvite" gorm:"not null;default:false"`
	Verified    bool      `json:"verified" gorm:"not null;default:false"`
	RefCode     string    `json:"refCode" gorm:"uniqueIndex;not null"`
	RefBy       *string   `json:"refBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
