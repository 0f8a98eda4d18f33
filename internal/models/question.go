package models

import (
	"strings"
	"time"
)

// Answer slots accepted for Question.CorrectAnswer.
const (
	AnswerA = "a"
	AnswerB = "b"
	AnswerC = "c"
	AnswerD = "d"
)

// Question is a single multiple-choice item. Questions are only created while publishing an exam.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExamID        uint      `gorm:"not null;index;uniqueIndex:idx_questions_exam_order" json:"exam_id"`
	QuestionOrder int       `gorm:"not null;uniqueIndex:idx_questions_exam_order" json:"question_order"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	OptionA       string    `gorm:"type:text;not null" json:"option_a"`
	OptionB       string    `gorm:"type:text;not null" json:"option_b"`
	OptionC       string    `gorm:"type:text;not null" json:"option_c"`
	OptionD       string    `gorm:"type:text;not null" json:"option_d"`
	CorrectAnswer string    `gorm:"size:1;not null;check:chk_questions_correct_answer,correct_answer IN ('a','b','c','d')" json:"correct_answer"`
	TopicTag      string    `gorm:"size:255;not null" json:"topic_tag"`
	CreatedAt     time.Time `json:"created_at"`
}

// NormalizeAnswer converts a user supplied designator into its canonical token.
// The second return value is false when the designator is not one of the four slots.
func NormalizeAnswer(designator string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(designator))
	switch normalized {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return normalized, true
	default:
		return "", false
	}
}

// Option returns the text of the option behind the given designator.
func (q Question) Option(designator string) string {
	normalized, ok := NormalizeAnswer(designator)
	if !ok {
		return ""
	}

	switch normalized {
	case AnswerA:
		return q.OptionA
	case AnswerB:
		return q.OptionB
	case AnswerC:
		return q.OptionC
	default:
		return q.OptionD
	}
}
