package service

import (
	"sort"
	"strings"

	"github.com/prapars-lang/kai/internal/models"
)

// FilterAll disables an individual criterion.
const FilterAll = "All"

// SortKey selects the ordering applied after filtering.
type SortKey string

// Supported sort keys.
const (
	SortLatest    SortKey = "latest"
	SortOldest    SortKey = "oldest"
	SortScoreHigh SortKey = "score-high"
	SortScoreLow  SortKey = "score-low"
)

// Criteria are independent, conjunctive predicates over submissions. Empty
// values and FilterAll both disable the corresponding predicate. Status
// matches against review completion: "Pending" selects submissions without a
// graded review, "Graded" the rest.
type Criteria struct {
	Search       string
	Grade        string
	Room         string
	ActivityType string
	Status       string
}

// Matches reports whether the submission satisfies every active predicate.
func (c Criteria) Matches(s models.Submission) bool {
	if c.Search != "" {
		nameMatch := strings.Contains(strings.ToLower(s.Name), strings.ToLower(c.Search))
		numberMatch := strings.Contains(s.StudentNumber, c.Search)
		if !nameMatch && !numberMatch {
			return false
		}
	}

	if c.Grade != "" && c.Grade != FilterAll && s.Grade != c.Grade {
		return false
	}

	if c.Room != "" && c.Room != FilterAll && s.Room != c.Room {
		return false
	}

	if c.ActivityType != "" && c.ActivityType != FilterAll && s.ActivityType != c.ActivityType {
		return false
	}

	switch c.Status {
	case "", FilterAll:
	case models.ReviewStatusGraded:
		if !s.IsGraded() {
			return false
		}
	case models.ReviewStatusPending:
		if s.IsGraded() {
			return false
		}
	}

	return true
}

// SelectAndOrder filters the submissions by the criteria and orders the
// result by the sort key. The input slice is never mutated and ties keep
// their original relative order.
func SelectAndOrder(submissions []models.Submission, criteria Criteria, sortKey SortKey) []models.Submission {
	result := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if criteria.Matches(submission) {
			result = append(result, submission)
		}
	}

	switch sortKey {
	case SortOldest:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].RowID < result[j].RowID
		})
	case SortScoreHigh:
		sort.SliceStable(result, func(i, j int) bool {
			return sortScore(result[i], -1) > sortScore(result[j], -1)
		})
	case SortScoreLow:
		sort.SliceStable(result, func(i, j int) bool {
			return sortScore(result[i], 100) < sortScore(result[j], 100)
		})
	default: // SortLatest
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].RowID > result[j].RowID
		})
	}

	return result
}

// sortScore maps an ungraded submission to a sentinel that sorts it last for
// the given direction.
func sortScore(s models.Submission, ungraded int) int {
	if !s.IsGraded() {
		return ungraded
	}
	return s.TotalScore
}
