package models

import "time"

// Submission is a student's completed attempt at an exam.
type Submission struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ExamID           uint       `gorm:"not null;index" json:"exam_id"`
	StudentID        uint       `gorm:"not null;index" json:"student_id"`
	TotalScore       int        `gorm:"not null;default:0;check:chk_submissions_score,total_score >= 0" json:"total_score"`
	TotalQuestions   int        `gorm:"not null;check:chk_submissions_total,total_questions > 0" json:"total_questions"`
	TimeTakenMinutes *int       `json:"time_taken_minutes"`
	SubmittedAt      *time.Time `gorm:"index" json:"submitted_at"`
	Exam             Exam       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
	Student          Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Responses        []Response `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"responses,omitempty"`
}

// Percent returns the score as a percentage of the question count.
func (s Submission) Percent() float64 {
	if s.TotalQuestions <= 0 {
		return 0
	}
	return float64(s.TotalScore) * 100 / float64(s.TotalQuestions)
}
