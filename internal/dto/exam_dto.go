package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// QuestionDraft is one multiple-choice item inside an exam publication request.
type QuestionDraft struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required"`
	TopicTag      string `json:"topic_tag" validate:"required"`
}

// ExamCreateRequest is the fully shaped draft submitted when publishing an exam.
type ExamCreateRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Topic           string          `json:"topic" validate:"required,max=255"`
	AccessCode      string          `json:"access_code" validate:"required,max=64"`
	DurationMinutes int             `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	Questions       []QuestionDraft `json:"questions" validate:"required,min=1,dive"`
}

// ExamStatusRequest toggles an exam between active and inactive.
type ExamStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// ExamResponse is the list representation of an exam.
type ExamResponse struct {
	ID              uint      `json:"id"`
	TeacherID       uint      `json:"teacher_id"`
	Name            string    `json:"name"`
	Topic           string    `json:"topic"`
	AccessCode      string    `json:"access_code"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	QuestionCount   int64     `json:"question_count"`
	SubmissionCount int64     `json:"submission_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuestionResponse is the serialized form of a persisted question.
type QuestionResponse struct {
	ID            uint   `json:"id"`
	QuestionOrder int    `json:"question_order"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	TopicTag      string `json:"topic_tag"`
}

// ExamDetailResponse adds the ordered question set to an exam.
type ExamDetailResponse struct {
	ExamResponse
	Questions []QuestionResponse `json:"questions"`
}

// NewExamResponse converts a model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	return ExamResponse{
		ID:              model.ID,
		TeacherID:       model.TeacherID,
		Name:            model.Name,
		Topic:           model.Topic,
		AccessCode:      model.AccessCode,
		DurationMinutes: model.DurationMinutes,
		Status:          model.Status,
		QuestionCount:   int64(len(model.Questions)),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewQuestionResponse converts a question model. The designator is rendered as its slot letter.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:            model.ID,
		QuestionOrder: model.QuestionOrder,
		QuestionText:  model.QuestionText,
		OptionA:       model.OptionA,
		OptionB:       model.OptionB,
		OptionC:       model.OptionC,
		OptionD:       model.OptionD,
		CorrectAnswer: strings.ToUpper(model.CorrectAnswer),
		TopicTag:      model.TopicTag,
	}
}

// NewExamDetailResponse converts an exam with its questions.
func NewExamDetailResponse(model models.Exam) ExamDetailResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question))
	}

	return ExamDetailResponse{
		ExamResponse: NewExamResponse(model),
		Questions:    questions,
	}
}
