package ai

import "context"

// ScoreInput carries the submission metadata the scorer grades from.
type ScoreInput struct {
	StudentName  string
	ActivityType string
	Grade        string
}

// ScoreResult is the structured rubric suggestion returned by the AI scorer.
// Each dimension is an integer in [0,5]; Comment is a short remark in Thai.
type ScoreResult struct {
	ContentAccuracy int    `json:"contentAccuracy"`
	Participation   int    `json:"participation"`
	Presentation    int    `json:"presentation"`
	Discipline      int    `json:"discipline"`
	Comment         string `json:"comment"`
}

// Scorer describes an AI model capable of suggesting rubric scores for a
// student's activity video submission.
type Scorer interface {
	Score(ctx context.Context, input ScoreInput) (ScoreResult, error)
}
