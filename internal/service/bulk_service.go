package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
	"github.com/prapars-lang/kai/pkg/ai"
)

// ErrBulkRunning indicates a bulk grading run is already in flight.
var ErrBulkRunning = errors.New("bulk grading already running")

// aiBulkMarker prefixes comments written by the bulk auto-grader.
const aiBulkMarker = "🤖 [AI Auto-Grade]: "

// BulkObserver receives progress while a bulk run grades submissions one by
// one. Progress is reported before each item is scored.
type BulkObserver interface {
	Progress(progress dto.BulkProgress)
}

// BulkObserverFunc adapts a function to the BulkObserver interface.
type BulkObserverFunc func(progress dto.BulkProgress)

func (f BulkObserverFunc) Progress(progress dto.BulkProgress) { f(progress) }

// BulkService grades every pending submission matching the caller's current
// filter in one sequential run.
type BulkService interface {
	GradeAll(ctx context.Context, criteria Criteria, sortKey SortKey, actor Actor, observer BulkObserver) (dto.BulkReport, error)
}

type bulkService struct {
	repo     repository.SubmissionRepository
	scorer   ai.Scorer
	activity ActivityRecorder
	events   EventPublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	running  atomic.Bool
}

// NewBulkService constructs the bulk grading service.
func NewBulkService(
	repo repository.SubmissionRepository,
	scorer ai.Scorer,
	activity ActivityRecorder,
	events EventPublisher,
	logger zerolog.Logger,
) BulkService {
	return &bulkService{
		repo:     repo,
		scorer:   scorer,
		activity: activity,
		events:   events,
		logger:   logger.With().Str("component", "bulk_service").Logger(),
		tracer:   otel.Tracer("service.bulk_grading"),
		now:      time.Now,
	}
}

// GradeAll snapshots the pending submissions visible under criteria at the
// moment the run starts, then grades them strictly one at a time. A failure on
// one item never aborts the run; the item is reported and the run moves on.
func (s *bulkService) GradeAll(ctx context.Context, criteria Criteria, sortKey SortKey, actor Actor, observer BulkObserver) (dto.BulkReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return dto.BulkReport{}, ErrBulkRunning
	}
	defer s.running.Store(false)

	ctx, span := s.tracer.Start(ctx, "grading.bulk")
	defer span.End()

	submissions, err := s.repo.List(ctx)
	if err != nil {
		return dto.BulkReport{}, err
	}

	// Only ungraded rows are eligible, whatever status the filter asked for.
	criteria.Status = models.ReviewStatusPending
	snapshot := SelectAndOrder(submissions, criteria, sortKey)

	report := dto.BulkReport{
		Total: len(snapshot),
		Items: make([]dto.BulkItemOutcome, 0, len(snapshot)),
	}
	span.SetAttributes(attribute.Int("bulk.total", report.Total))

	for i, submission := range snapshot {
		if err := ctx.Err(); err != nil {
			s.logger.Info().
				Int("graded", report.Graded).
				Int("remaining", report.Total-i).
				Msg("bulk grading cancelled")
			return report, err
		}

		if observer != nil {
			observer.Progress(dto.BulkProgress{
				Current:     i + 1,
				Total:       report.Total,
				CurrentName: submission.Name,
			})
		}

		report.Items = append(report.Items, s.gradeOne(ctx, submission, actor))
		switch report.Items[i].Outcome {
		case dto.BulkOutcomeGraded:
			report.Graded++
		case dto.BulkOutcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	if report.Total > 0 {
		_ = s.activity.Record(ctx, actor, models.ActionBulkGraded, nil, datatypes.JSONMap{
			"total":   report.Total,
			"graded":  report.Graded,
			"failed":  report.Failed,
			"skipped": report.Skipped,
		})
	}

	s.logger.Info().
		Int("total", report.Total).
		Int("graded", report.Graded).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("bulk grading finished")

	return report, nil
}

func (s *bulkService) gradeOne(ctx context.Context, submission models.Submission, actor Actor) dto.BulkItemOutcome {
	outcome := dto.BulkItemOutcome{
		RowID:       submission.RowID,
		StudentName: submission.Name,
	}

	result, err := s.scorer.Score(ctx, ai.ScoreInput{
		StudentName:  submission.Name,
		ActivityType: submission.ActivityType,
		Grade:        submission.Grade,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("row_id", submission.RowID).Msg("bulk item scoring failed")
		outcome.Outcome = dto.BulkOutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	rubric := models.Rubric{
		ContentAccuracy: result.ContentAccuracy,
		Participation:   result.Participation,
		Presentation:    result.Presentation,
		Discipline:      result.Discipline,
	}
	total, percentage := models.ComputeTotals(rubric)
	gradedAt := s.now()

	update := repository.ReviewUpdate{
		Rubric:     rubric,
		TotalScore: total,
		Percentage: percentage,
		Comment:    aiBulkMarker + result.Comment,
		Status:     models.ReviewStatusGraded,
		GradedAt:   gradedAt,
	}

	// The write is conditional on the revision captured in the snapshot. If a
	// teacher graded this row mid-run, their review wins and the row is
	// reported as skipped rather than overwritten.
	err = s.repo.UpdateReviewIfRevision(ctx, submission.RowID, submission.Revision, update)
	switch {
	case errors.Is(err, repository.ErrRevisionConflict):
		s.logger.Info().Uint("row_id", submission.RowID).Msg("bulk item skipped, graded elsewhere mid-run")
		outcome.Outcome = dto.BulkOutcomeSkipped
		return outcome
	case errors.Is(err, gorm.ErrRecordNotFound):
		outcome.Outcome = dto.BulkOutcomeFailed
		outcome.Error = ErrSubmissionNotFound.Error()
		return outcome
	case err != nil:
		s.logger.Warn().Err(err).Uint("row_id", submission.RowID).Msg("bulk item save failed")
		outcome.Outcome = dto.BulkOutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	if err := s.events.PublishGraded(ctx, GradedEvent{
		RowID:       submission.RowID,
		StudentName: submission.Name,
		Activity:    submission.ActivityType,
		TotalScore:  total,
		Percentage:  percentage,
		AutoGraded:  true,
		GradedBy:    actor.Name,
		GradedAt:    gradedAt,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("row_id", submission.RowID).Msg("graded event not published")
	}

	outcome.Outcome = dto.BulkOutcomeGraded
	outcome.TotalScore = total
	return outcome
}
