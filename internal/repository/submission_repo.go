package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/models"
)

// ErrRevisionConflict indicates a review write was skipped because another
// session saved a newer review for the same submission first.
var ErrRevisionConflict = errors.New("review revision conflict")

// ReviewUpdate carries the full rubric result persisted on a grade save.
// Partial writes are not supported: the review is always replaced as a whole.
type ReviewUpdate struct {
	Rubric     models.Rubric
	TotalScore int
	Percentage int
	Comment    string
	Status     string
	GradedAt   time.Time
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context) ([]models.Submission, error)
	GetByID(ctx context.Context, rowID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	// UpdateReview persists a review unconditionally, bumping the revision.
	UpdateReview(ctx context.Context, rowID uint, update ReviewUpdate) error
	// UpdateReviewIfRevision persists a review only when the stored revision
	// still matches the caller's snapshot; otherwise ErrRevisionConflict.
	UpdateReviewIfRevision(ctx context.Context, rowID uint, revision int64, update ReviewUpdate) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Order("row_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, rowID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, rowID).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func reviewColumns(update ReviewUpdate) map[string]interface{} {
	return map[string]interface{}{
		"content_accuracy": update.Rubric.ContentAccuracy,
		"participation":    update.Rubric.Participation,
		"presentation":     update.Rubric.Presentation,
		"discipline":       update.Rubric.Discipline,
		"total_score":      update.TotalScore,
		"percentage":       update.Percentage,
		"comment":          update.Comment,
		"review_status":    update.Status,
		"graded_at":        update.GradedAt,
		"revision":         gorm.Expr("revision + 1"),
	}
}

func (r *submissionRepository) UpdateReview(ctx context.Context, rowID uint, update ReviewUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("row_id = ?", rowID).
		Updates(reviewColumns(update))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *submissionRepository) UpdateReviewIfRevision(ctx context.Context, rowID uint, revision int64, update ReviewUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("row_id = ? AND revision = ?", rowID, revision).
		Updates(reviewColumns(update))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Submission{}).
			Where("row_id = ?", rowID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrRevisionConflict
	}

	return nil
}
