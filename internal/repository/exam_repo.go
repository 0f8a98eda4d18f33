package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// ExamRepository defines persistence operations for exams and their questions.
type ExamRepository interface {
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Exam, error)
	CountQuestions(ctx context.Context, examIDs []uint) (map[uint]int64, error)
	CountSubmissions(ctx context.Context, examIDs []uint) (map[uint]int64, error)
	GetByID(ctx context.Context, teacherID, examID uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	CreateQuestions(ctx context.Context, questions []models.Question) error
	CreateWithQuestions(ctx context.Context, exam *models.Exam, questions []models.Question) error
	UpdateStatus(ctx context.Context, teacherID, examID uint, status string, at time.Time) error
	Delete(ctx context.Context, teacherID, examID uint) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates a GORM-backed repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

type examCount struct {
	ExamID uint
	Total  int64
}

func (r *examRepository) CountQuestions(ctx context.Context, examIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, &models.Question{}, examIDs)
}

func (r *examRepository) CountSubmissions(ctx context.Context, examIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, &models.Submission{}, examIDs)
}

func (r *examRepository) countBy(ctx context.Context, model interface{}, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}

	var rows []examCount
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("exam_id, COUNT(*) AS total").
		Where("exam_id IN ?", examIDs).
		Group("exam_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ExamID] = row.Total
	}
	return counts, nil
}

func (r *examRepository) GetByID(ctx context.Context, teacherID, examID uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Where("teacher_id = ?", teacherID).
		First(&exam, examID).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(exam).Error
}

func (r *examRepository) CreateQuestions(ctx context.Context, questions []models.Question) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&questions).Error
}

func (r *examRepository) CreateWithQuestions(ctx context.Context, exam *models.Exam, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(exam).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].ExamID = exam.ID
		}

		return tx.Omit(clause.Associations).Create(&questions).Error
	})
}

func (r *examRepository) UpdateStatus(ctx context.Context, teacherID, examID uint, status string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ? AND teacher_id = ?", examID, teacherID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the exam. Questions go with it through the ON DELETE CASCADE constraint;
// they are also selected for deletion so stores without enforced foreign keys stay consistent.
func (r *examRepository) Delete(ctx context.Context, teacherID, examID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam models.Exam
		if err := tx.Select("id").Where("teacher_id = ?", teacherID).First(&exam, examID).Error; err != nil {
			return err
		}

		result := tx.Select("Questions").Delete(&exam)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
