package models

import "time"

const (
	// ExamStatusActive marks an exam that students can locate by access code.
	ExamStatusActive = "active"
	// ExamStatusInactive hides the exam from students.
	ExamStatusInactive = "inactive"
)

// DefaultExamDurationMinutes is applied when a draft does not specify a duration.
const DefaultExamDurationMinutes = 60

// Exam is a multiple-choice exam owned by a teacher.
type Exam struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TeacherID       uint       `gorm:"not null;uniqueIndex:idx_exams_teacher_access_code" json:"teacher_id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Topic           string     `gorm:"size:255;not null" json:"topic"`
	AccessCode      string     `gorm:"size:64;not null;uniqueIndex:idx_exams_teacher_access_code" json:"access_code"`
	DurationMinutes int        `gorm:"not null;default:60" json:"duration_minutes"`
	Status          string     `gorm:"size:16;not null;default:active;check:chk_exams_status,status IN ('active','inactive')" json:"status"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Teacher         *Teacher   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Questions       []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// IsActive reports whether the exam is currently open to students.
func (e Exam) IsActive() bool {
	return e.Status == ExamStatusActive
}

// ValidExamStatus reports whether status is one of the supported values.
func ValidExamStatus(status string) bool {
	return status == ExamStatusActive || status == ExamStatusInactive
}
