package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
)

// Actor identifies the teacher performing a grading action, taken from the
// authenticated session.
type Actor struct {
	ID   uint
	Name string
}

// ActivityRecorder appends audit entries for teacher actions. Recording is
// best effort: callers log failures but never fail the primary operation.
type ActivityRecorder interface {
	Record(ctx context.Context, actor Actor, action string, rowID *uint, metadata datatypes.JSONMap) error
	List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityRecorder struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

func NewActivityRecorder(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityRecorder {
	return &activityRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "activity_recorder").Logger(),
	}
}

func (r *activityRecorder) Record(ctx context.Context, actor Actor, action string, rowID *uint, metadata datatypes.JSONMap) error {
	entry := &models.ActivityLog{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		RowID:     rowID,
		Metadata:  metadata,
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
		return err
	}

	return nil
}

func (r *activityRecorder) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return r.repo.List(ctx, filter)
}
