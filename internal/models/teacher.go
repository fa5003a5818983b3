package models

import "time"

// Teacher is an account allowed into the grading views. The PIN is stored
// bcrypt-hashed; session lifetime is handled by the JWT layer.
type Teacher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PINHash   string    `gorm:"size:128;not null" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
