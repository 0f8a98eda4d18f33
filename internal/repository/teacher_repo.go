package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// TeacherRepository persists teacher accounts.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id uint) (models.Teacher, error)
	GetByEmail(ctx context.Context, email string) (models.Teacher, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository instantiates the repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepository) GetByID(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *teacherRepository) GetByEmail(ctx context.Context, email string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

// UpdateProfile writes the mutable profile columns only.
func (r *teacherRepository) UpdateProfile(ctx context.Context, teacher *models.Teacher) error {
	result := r.db.WithContext(ctx).
		Model(teacher).
		Select("name", "institution_name", "department", "updated_at").
		Updates(teacher)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
