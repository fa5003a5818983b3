package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/models"
)

// TeacherRepository looks up teacher accounts for login.
type TeacherRepository interface {
	GetByUsername(ctx context.Context, username string) (models.Teacher, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository instantiates the repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) GetByUsername(ctx context.Context, username string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}
