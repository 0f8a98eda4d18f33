package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	ExamID *uint
}

// SubmissionRepository reads submissions and responses for exams owned by a teacher.
type SubmissionRepository interface {
	ListForTeacher(ctx context.Context, teacherID uint, filter SubmissionFilter) ([]models.Submission, error)
	GetForTeacher(ctx context.Context, teacherID, submissionID uint) (models.Submission, error)
	ListResponses(ctx context.Context, submissionID uint) ([]models.Response, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context, teacherID uint) *gorm.DB {
	owned := r.db.WithContext(ctx).Model(&models.Exam{}).Select("id").Where("teacher_id = ?", teacherID)

	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Exam").
		Preload("Student").
		Where("exam_id IN (?)", owned)
}

func (r *submissionRepository) ListForTeacher(ctx context.Context, teacherID uint, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx, teacherID)

	if filter.ExamID != nil {
		query = query.Where("exam_id = ?", *filter.ExamID)
	}

	var submissions []models.Submission
	if err := query.
		Order("submitted_at IS NULL").
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetForTeacher(ctx context.Context, teacherID, submissionID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx, teacherID).First(&submission, submissionID).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListResponses(ctx context.Context, submissionID uint) ([]models.Response, error) {
	var responses []models.Response
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Joins("JOIN questions ON questions.id = responses.question_id").
		Where("responses.submission_id = ?", submissionID).
		Order("questions.question_order ASC").
		Order("responses.id ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	return responses, nil
}
