package models

import "time"

// Teacher is an instructor account. The ID is the opaque identity issued at sign-up.
type Teacher struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	InstitutionName string    `gorm:"size:255" json:"institution_name"`
	Department      string    `gorm:"size:255" json:"department"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
