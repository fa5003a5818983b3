package dto

import "github.com/prapars-lang/kai/internal/models"

// DimensionUpdateRequest sets one rubric dimension of the active session.
type DimensionUpdateRequest struct {
	Key   string `json:"key" validate:"required,oneof=contentAccuracy participation presentation discipline"`
	Value int    `json:"value" validate:"gte=0,lte=5"`
}

// CommentUpdateRequest replaces the working comment of the active session.
type CommentUpdateRequest struct {
	Comment string `json:"comment"`
}

// SessionResponse mirrors the working rubric of an editing session.
type SessionResponse struct {
	RowID           uint   `json:"rowId"`
	StudentName     string `json:"studentName"`
	ContentAccuracy int    `json:"contentAccuracy"`
	Participation   int    `json:"participation"`
	Presentation    int    `json:"presentation"`
	Discipline      int    `json:"discipline"`
	TotalScore      int    `json:"totalScore"`
	Percentage      int    `json:"percentage"`
	Comment         string `json:"comment"`
	Status          string `json:"status"`
}

// BulkItemOutcome is the per-submission result of a bulk grading run.
type BulkItemOutcome struct {
	RowID       uint   `json:"rowId"`
	StudentName string `json:"studentName"`
	Outcome     string `json:"outcome"`
	TotalScore  int    `json:"totalScore,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Bulk item outcomes.
const (
	BulkOutcomeGraded  = "graded"
	BulkOutcomeFailed  = "failed"
	BulkOutcomeSkipped = "skipped"
)

// BulkReport summarises a completed bulk grading run.
type BulkReport struct {
	Total   int               `json:"total"`
	Graded  int               `json:"graded"`
	Failed  int               `json:"failed"`
	Skipped int               `json:"skipped"`
	Items   []BulkItemOutcome `json:"items"`
}

// BulkProgress is reported before each item is scored; Current is 1-based.
type BulkProgress struct {
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	CurrentName string `json:"currentName"`
}

// NewSessionResponse builds the session DTO from its working rubric.
func NewSessionResponse(rowID uint, studentName string, rubric models.Rubric, comment, status string) SessionResponse {
	total, percentage := models.ComputeTotals(rubric)
	return SessionResponse{
		RowID:           rowID,
		StudentName:     studentName,
		ContentAccuracy: rubric.ContentAccuracy,
		Participation:   rubric.Participation,
		Presentation:    rubric.Presentation,
		Discipline:      rubric.Discipline,
		TotalScore:      total,
		Percentage:      percentage,
		Comment:         comment,
		Status:          status,
	}
}
