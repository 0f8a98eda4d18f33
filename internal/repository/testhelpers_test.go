package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedTeacher(t *testing.T, db *gorm.DB, email string) models.Teacher {
	t.Helper()
	teacher := models.Teacher{Name: "Ada Lovelace", Email: email, InstitutionName: "Analytical College", Department: "Mathematics", PasswordHash: "hash"}
	require.NoError(t, db.Create(&teacher).Error)
	return teacher
}

func seedExam(t *testing.T, db *gorm.DB, teacherID uint, code string, createdAt time.Time) models.Exam {
	t.Helper()
	exam := models.Exam{TeacherID: teacherID, Name: "Exam " + code, Topic: "Trees", AccessCode: code, DurationMinutes: 60, Status: models.ExamStatusActive, CreatedAt: createdAt}
	require.NoError(t, db.Create(&exam).Error)
	return exam
}

func sampleQuestions(n int) []models.Question {
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.Question{
			QuestionOrder: i + 1,
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			OptionA:       "A",
			OptionB:       "B",
			OptionC:       "C",
			OptionD:       "D",
			CorrectAnswer: models.AnswerB,
			TopicTag:      "Algorithms",
		})
	}
	return questions
}

func intPointer(v int) *int { return &v }

func strPointer(v string) *string { return &v }

func timePointer(v time.Time) *time.Time { return &v }
