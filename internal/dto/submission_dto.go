package dto

import (
	"time"

	"github.com/prapars-lang/kai/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a video upload.
type SubmissionCreateRequest struct {
	Name          string `form:"name" validate:"required,min=2"`
	StudentNumber string `form:"studentNumber" validate:"required"`
	Grade         string `form:"grade" validate:"required,oneof='Prathom 5' 'Prathom 6'"`
	Room          string `form:"room" validate:"required,oneof='Room 1' 'Room 2' 'Room 3' 'Room 4'"`
	ActivityType  string `form:"activityType" validate:"required,oneof='Sports Day' 'Children Day'"`
}

// ReviewResponse is the rubric result attached to a graded submission.
type ReviewResponse struct {
	ContentAccuracy int        `json:"contentAccuracy"`
	Participation   int        `json:"participation"`
	Presentation    int        `json:"presentation"`
	Discipline      int        `json:"discipline"`
	TotalScore      int        `json:"totalScore"`
	Percentage      int        `json:"percentage"`
	Comment         string     `json:"comment"`
	Status          string     `json:"status"`
	GradedAt        *time.Time `json:"gradedAt,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
// Review is absent while the submission is still pending.
type SubmissionResponse struct {
	RowID         uint            `json:"rowId"`
	Name          string          `json:"name"`
	StudentNumber string          `json:"studentNumber"`
	Grade         string          `json:"grade"`
	Room          string          `json:"room"`
	ActivityType  string          `json:"activityType"`
	FileURL       string          `json:"fileUrl"`
	Review        *ReviewResponse `json:"review,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ResultQuery identifies the student asking for their score.
type ResultQuery struct {
	Name         string `query:"name" validate:"required,min=2"`
	Grade        string `query:"grade" validate:"required,oneof='Prathom 5' 'Prathom 6'"`
	Room         string `query:"room" validate:"required,oneof='Room 1' 'Room 2' 'Room 3' 'Room 4'"`
	ActivityType string `query:"activityType" validate:"required,oneof='Sports Day' 'Children Day'"`
}

// Result lookup outcomes.
const (
	ResultStatusNotFound = "not_found"
	ResultStatusAwaiting = "awaiting_review"
	ResultStatusGraded   = "graded"
)

// ResultResponse tells a student whether their work was found and graded.
type ResultResponse struct {
	Status     string              `json:"status"`
	Submission *SubmissionResponse `json:"submission,omitempty"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		RowID:         model.RowID,
		Name:          model.Name,
		StudentNumber: model.StudentNumber,
		Grade:         model.Grade,
		Room:          model.Room,
		ActivityType:  model.ActivityType,
		FileURL:       model.FileURL,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.IsGraded() {
		response.Review = &ReviewResponse{
			ContentAccuracy: model.ContentAccuracy,
			Participation:   model.Participation,
			Presentation:    model.Presentation,
			Discipline:      model.Discipline,
			TotalScore:      model.TotalScore,
			Percentage:      model.Percentage,
			Comment:         model.Comment,
			Status:          model.ReviewStatus,
			GradedAt:        model.GradedAt,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
