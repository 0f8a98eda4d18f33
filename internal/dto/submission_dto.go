package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// SubmissionStats summarises a set of submissions for dashboards.
type SubmissionStats struct {
	Count          int     `json:"count"`
	AveragePercent float64 `json:"average_percent"`
	MaxPercent     float64 `json:"max_percent"`
	MinPercent     float64 `json:"min_percent"`
}

// SubmissionStatsResponse wraps statistics with cache metadata.
type SubmissionStatsResponse struct {
	ExamID      *uint           `json:"exam_id"`
	Stats       SubmissionStats `json:"stats"`
	GeneratedAt time.Time       `json:"generated_at"`
	CacheHit    bool            `json:"cache_hit"`
}

// StudentSummary is the student portion of a submission row.
type StudentSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
}

// SubmissionResponse is a single submission row with derived percentage.
type SubmissionResponse struct {
	ID               uint           `json:"id"`
	ExamID           uint           `json:"exam_id"`
	ExamName         string         `json:"exam_name"`
	ExamTopic        string         `json:"exam_topic"`
	Student          StudentSummary `json:"student"`
	TotalScore       int            `json:"total_score"`
	TotalQuestions   int            `json:"total_questions"`
	Percent          float64        `json:"percent"`
	TimeTakenMinutes *int           `json:"time_taken_minutes"`
	SubmittedAt      *time.Time     `json:"submitted_at"`
}

// ResponseDetail is one answered (or skipped) question inside a submission.
type ResponseDetail struct {
	QuestionID       uint    `json:"question_id"`
	QuestionOrder    int     `json:"question_order"`
	QuestionText     string  `json:"question_text"`
	TopicTag         string  `json:"topic_tag"`
	Options          Options `json:"options"`
	CorrectAnswer    string  `json:"correct_answer"`
	SelectedAnswer   *string `json:"selected_answer"`
	IsCorrect        bool    `json:"is_correct"`
	TimeTakenSeconds *int    `json:"time_taken_seconds"`
}

// Options carries the four answer texts of a question.
type Options struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// SubmissionDetailResponse is the per-student drill-down.
type SubmissionDetailResponse struct {
	SubmissionResponse
	Responses []ResponseDetail `json:"responses"`
}

// NewSubmissionResponse converts a submission preloaded with its student and exam.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:        model.ID,
		ExamID:    model.ExamID,
		ExamName:  model.Exam.Name,
		ExamTopic: model.Exam.Topic,
		Student: StudentSummary{
			ID:         model.Student.ID,
			Name:       model.Student.Name,
			Email:      model.Student.Email,
			RollNumber: model.Student.RollNumber,
		},
		TotalScore:       model.TotalScore,
		TotalQuestions:   model.TotalQuestions,
		Percent:          model.Percent(),
		TimeTakenMinutes: model.TimeTakenMinutes,
		SubmittedAt:      model.SubmittedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

// NewSubmissionDetailResponse converts a submission and its responses.
func NewSubmissionDetailResponse(submission models.Submission, responses []models.Response) SubmissionDetailResponse {
	details := make([]ResponseDetail, 0, len(responses))
	for _, response := range responses {
		var selected *string
		if response.Answered() {
			upper := strings.ToUpper(*response.SelectedAnswer)
			selected = &upper
		}

		details = append(details, ResponseDetail{
			QuestionID:    response.QuestionID,
			QuestionOrder: response.Question.QuestionOrder,
			QuestionText:  response.Question.QuestionText,
			TopicTag:      response.Question.TopicTag,
			Options: Options{
				A: response.Question.OptionA,
				B: response.Question.OptionB,
				C: response.Question.OptionC,
				D: response.Question.OptionD,
			},
			CorrectAnswer:    strings.ToUpper(response.Question.CorrectAnswer),
			SelectedAnswer:   selected,
			IsCorrect:        response.IsCorrect,
			TimeTakenSeconds: response.TimeTakenSeconds,
		})
	}

	return SubmissionDetailResponse{
		SubmissionResponse: NewSubmissionResponse(submission),
		Responses:          details,
	}
}
