package service

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/database"
	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedTeacher(t *testing.T, db *gorm.DB, email string) models.Teacher {
	t.Helper()
	teacher := models.Teacher{Name: "Grace Hopper", Email: email, InstitutionName: "Navy College", Department: "Computing", PasswordHash: "hash"}
	require.NoError(t, db.Create(&teacher).Error)
	return teacher
}

func seedSubmission(t *testing.T, db *gorm.DB, examID uint, student models.Student, score, total int, submittedAt *time.Time) models.Submission {
	t.Helper()
	if student.ID == 0 {
		require.NoError(t, db.Create(&student).Error)
	}
	submission := models.Submission{
		ExamID:         examID,
		StudentID:      student.ID,
		TotalScore:     score,
		TotalQuestions: total,
		SubmittedAt:    submittedAt,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func draftRequest(code string, answers ...string) dto.ExamCreateRequest {
	questions := make([]dto.QuestionDraft, 0, len(answers))
	for i, answer := range answers {
		questions = append(questions, dto.QuestionDraft{
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			OptionA:       "first",
			OptionB:       "second",
			OptionC:       "third",
			OptionD:       "fourth",
			CorrectAnswer: answer,
			TopicTag:      "logic",
		})
	}

	return dto.ExamCreateRequest{
		Name:       "Discrete Maths",
		Topic:      "Logic",
		AccessCode: code,
		Questions:  questions,
	}
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }
