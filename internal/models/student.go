package models

import "time"

// Student is written by the exam-taking flow; the console only reads it.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	RollNumber string    `gorm:"column:roll_number;size:64;not null;index" json:"roll_number"`
	CreatedAt  time.Time `json:"created_at"`
}
