package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrUnsupportedFileType indicates the uploaded file is not a video.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates the submission store: listing with the
// filter/sort engine, student uploads and result lookup.
type SubmissionService interface {
	List(ctx context.Context, criteria Criteria, sortKey SortKey) ([]dto.SubmissionResponse, error)
	Create(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Result(ctx context.Context, query dto.ResultQuery) (dto.ResultResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(repo repository.SubmissionRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: repo,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) List(ctx context.Context, criteria Criteria, sortKey SortKey) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx)
	if err != nil {
		return nil, err
	}

	ordered := SelectAndOrder(submissions, criteria, sortKey)

	return dto.NewSubmissionResponseSlice(ordered), nil
}

func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("video file is required")
	}

	if err := validateVideoType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload video: %w", err)
	}

	submission := models.Submission{
		Name:          strings.TrimSpace(payload.Name),
		StudentNumber: strings.TrimSpace(payload.StudentNumber),
		Grade:         payload.Grade,
		Room:          payload.Room,
		ActivityType:  payload.ActivityType,
		FileURL:       uploadURL,
		ReviewStatus:  models.ReviewStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("row_id", submission.RowID).Str("activity", submission.ActivityType).Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

// Result looks up a student's score: case-insensitive name substring plus
// exact grade, room and activity, mirroring how students search themselves.
func (s *submissionService) Result(ctx context.Context, query dto.ResultQuery) (dto.ResultResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ResultResponse{}, err
	}

	submissions, err := s.submissions.List(ctx)
	if err != nil {
		return dto.ResultResponse{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(query.Name))
	for _, submission := range submissions {
		if !strings.Contains(strings.ToLower(submission.Name), needle) {
			continue
		}
		if submission.Grade != query.Grade || submission.Room != query.Room || submission.ActivityType != query.ActivityType {
			continue
		}

		response := dto.NewSubmissionResponse(submission)
		status := dto.ResultStatusAwaiting
		if submission.IsGraded() {
			status = dto.ResultStatusGraded
		}
		return dto.ResultResponse{Status: status, Submission: &response}, nil
	}

	return dto.ResultResponse{Status: dto.ResultStatusNotFound}, nil
}

func validateVideoType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	if !strings.HasPrefix(mime.String(), "video/") {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
	}

	return nil
}

// notFound translates the gorm sentinel so handlers never see the ORM error.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubmissionNotFound
	}
	return err
}
