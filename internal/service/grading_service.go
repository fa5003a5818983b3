package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
	"github.com/prapars-lang/kai/pkg/ai"
)

// Grading session errors.
var (
	ErrSessionActive    = errors.New("a grading session is already in progress")
	ErrNoEditingSession = errors.New("no grading session is in progress")
	ErrUnknownDimension = errors.New("unknown rubric dimension")
)

// Editing session states.
const (
	SessionStatusEditing = "Editing"
	SessionStatusClosed  = "Closed"
)

// aiSuggestMarker prefixes comments produced by the single-item AI assist so
// teachers can tell suggested text from their own.
const aiSuggestMarker = "🤖 [AI วิเคราะห์]: "

// GradingService manages the single active review session. All edits apply to
// in-memory working state; nothing is persisted until Save.
type GradingService interface {
	Start(ctx context.Context, rowID uint) (dto.SessionResponse, error)
	Session() (dto.SessionResponse, bool)
	UpdateDimension(ctx context.Context, payload dto.DimensionUpdateRequest) (dto.SessionResponse, error)
	UpdateComment(ctx context.Context, payload dto.CommentUpdateRequest) (dto.SessionResponse, error)
	AutoGrade(ctx context.Context) (dto.SessionResponse, error)
	Save(ctx context.Context, actor Actor) (dto.SubmissionResponse, error)
	Cancel() error
}

type editingSession struct {
	rowID        uint
	studentName  string
	grade        string
	activityType string
	rubric       models.Rubric
	comment      string
}

type gradingService struct {
	repo      repository.SubmissionRepository
	scorer    ai.Scorer
	activity  ActivityRecorder
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu      sync.Mutex
	session *editingSession
}

// NewGradingService constructs the grading workflow service.
func NewGradingService(
	repo repository.SubmissionRepository,
	scorer ai.Scorer,
	activity ActivityRecorder,
	events EventPublisher,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		repo:      repo,
		scorer:    scorer,
		activity:  activity,
		events:    events,
		validator: validator.New(),
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("service.grading"),
		now:       time.Now,
	}
}

func (s *gradingService) Start(ctx context.Context, rowID uint) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.start",
		trace.WithAttributes(attribute.Int("submission.row_id", int(rowID))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return dto.SessionResponse{}, ErrSessionActive
	}

	submission, err := s.repo.GetByID(ctx, rowID)
	if err != nil {
		return dto.SessionResponse{}, notFound(err)
	}

	session := &editingSession{
		rowID:        submission.RowID,
		studentName:  submission.Name,
		grade:        submission.Grade,
		activityType: submission.ActivityType,
	}
	// Re-grading resumes from the saved review; a first grade starts blank.
	if submission.IsGraded() {
		session.rubric = submission.Review()
		session.comment = submission.Comment
	}
	s.session = session

	s.logger.Info().
		Uint("row_id", rowID).
		Str("student", submission.Name).
		Msg("grading session started")

	return s.sessionResponseLocked(), nil
}

func (s *gradingService) Session() (dto.SessionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return dto.SessionResponse{}, false
	}

	return s.sessionResponseLocked(), true
}

func (s *gradingService) UpdateDimension(_ context.Context, payload dto.DimensionUpdateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return dto.SessionResponse{}, ErrNoEditingSession
	}

	if !s.session.rubric.Set(payload.Key, payload.Value) {
		return dto.SessionResponse{}, ErrUnknownDimension
	}

	return s.sessionResponseLocked(), nil
}

func (s *gradingService) UpdateComment(_ context.Context, payload dto.CommentUpdateRequest) (dto.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return dto.SessionResponse{}, ErrNoEditingSession
	}

	s.session.comment = payload.Comment

	return s.sessionResponseLocked(), nil
}

// AutoGrade asks the AI scorer to fill the working rubric. On failure the
// session is left exactly as it was, so the teacher keeps editing by hand.
func (s *gradingService) AutoGrade(ctx context.Context) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.auto_grade")
	defer span.End()

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return dto.SessionResponse{}, ErrNoEditingSession
	}
	input := ai.ScoreInput{
		StudentName:  s.session.studentName,
		ActivityType: s.session.activityType,
		Grade:        s.session.grade,
	}
	rowID := s.session.rowID
	s.mu.Unlock()

	// The scorer call runs outside the lock; it can take seconds.
	result, err := s.scorer.Score(ctx, input)
	if err != nil {
		s.logger.Warn().Err(err).Uint("row_id", rowID).Msg("ai scoring failed")
		return dto.SessionResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.rowID != rowID {
		return dto.SessionResponse{}, ErrNoEditingSession
	}

	s.session.rubric = models.Rubric{
		ContentAccuracy: result.ContentAccuracy,
		Participation:   result.Participation,
		Presentation:    result.Presentation,
		Discipline:      result.Discipline,
	}
	s.session.comment = aiSuggestMarker + result.Comment

	return s.sessionResponseLocked(), nil
}

func (s *gradingService) Save(ctx context.Context, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.save")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return dto.SubmissionResponse{}, ErrNoEditingSession
	}

	if err := s.validator.Struct(s.session.rubric); err != nil {
		return dto.SubmissionResponse{}, err
	}

	total, percentage := models.ComputeTotals(s.session.rubric)
	gradedAt := s.now()

	update := repository.ReviewUpdate{
		Rubric:     s.session.rubric,
		TotalScore: total,
		Percentage: percentage,
		Comment:    s.session.comment,
		Status:     models.ReviewStatusGraded,
		GradedAt:   gradedAt,
	}

	rowID := s.session.rowID
	if err := s.repo.UpdateReview(ctx, rowID, update); err != nil {
		return dto.SubmissionResponse{}, notFound(err)
	}

	submission, err := s.repo.GetByID(ctx, rowID)
	if err != nil {
		return dto.SubmissionResponse{}, notFound(err)
	}

	_ = s.activity.Record(ctx, actor, models.ActionGraded, &rowID, datatypes.JSONMap{
		"student":     submission.Name,
		"total_score": total,
		"percentage":  percentage,
	})

	if err := s.events.PublishGraded(ctx, GradedEvent{
		RowID:       rowID,
		StudentName: submission.Name,
		Activity:    submission.ActivityType,
		TotalScore:  total,
		Percentage:  percentage,
		GradedBy:    actor.Name,
		GradedAt:    gradedAt,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("row_id", rowID).Msg("graded event not published")
	}

	s.session = nil

	s.logger.Info().
		Uint("row_id", rowID).
		Int("total_score", total).
		Str("graded_by", actor.Name).
		Msg("review saved")

	return dto.NewSubmissionResponse(submission), nil
}

// Cancel discards the working state without persisting anything.
func (s *gradingService) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoEditingSession
	}

	s.logger.Info().Uint("row_id", s.session.rowID).Msg("grading session cancelled")
	s.session = nil

	return nil
}

// sessionResponseLocked renders the active session; callers must hold mu.
func (s *gradingService) sessionResponseLocked() dto.SessionResponse {
	return dto.NewSessionResponse(
		s.session.rowID,
		s.session.studentName,
		s.session.rubric,
		s.session.comment,
		SessionStatusEditing,
	)
}
