package models

import "time"

// Response is a student's answer to a single question within a submission.
type Response struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SubmissionID     uint      `gorm:"not null;index" json:"submission_id"`
	QuestionID       uint      `gorm:"not null;index" json:"question_id"`
	SelectedAnswer   *string   `gorm:"size:1" json:"selected_answer"`
	IsCorrect        bool      `gorm:"not null;default:false" json:"is_correct"`
	TimeTakenSeconds *int      `json:"time_taken_seconds"`
	CreatedAt        time.Time `json:"created_at"`
	Question         Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}

// Answered reports whether the student selected an option.
func (r Response) Answered() bool {
	return r.SelectedAnswer != nil && *r.SelectedAnswer != ""
}
