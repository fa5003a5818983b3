package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}))
	return db
}

func seedSubmission(t *testing.T, db *gorm.DB) models.Submission {
	t.Helper()
	submission := models.Submission{
		Name:          "เด็กหญิงสมใจ ใจดี",
		StudentNumber: "12",
		Grade:         models.GradePrathom5,
		Room:          models.Room2,
		ActivityType:  models.ActivitySportsDay,
		FileURL:       "https://res.example.com/videos/v1.mp4",
		ReviewStatus:  models.ReviewStatusPending,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryUpdateReviewBumpsRevision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	seeded := seedSubmission(t, db)

	update := ReviewUpdate{
		Rubric:     models.Rubric{ContentAccuracy: 4, Participation: 5, Presentation: 3, Discipline: 5},
		TotalScore: 17,
		Percentage: 85,
		Comment:    "ทำได้ดีมาก",
		Status:     models.ReviewStatusGraded,
		GradedAt:   time.Now(),
	}
	require.NoError(t, repo.UpdateReview(context.Background(), seeded.RowID, update))

	stored, err := repo.GetByID(context.Background(), seeded.RowID)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusGraded, stored.ReviewStatus)
	require.Equal(t, 17, stored.TotalScore)
	require.Equal(t, 85, stored.Percentage)
	require.Equal(t, int64(1), stored.Revision)
}

func TestSubmissionRepositoryUpdateReviewMissingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	err := repo.UpdateReview(context.Background(), 999, ReviewUpdate{Status: models.ReviewStatusGraded, GradedAt: time.Now()})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryConditionalUpdateDetectsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	seeded := seedSubmission(t, db)

	update := ReviewUpdate{
		Rubric:     models.Rubric{ContentAccuracy: 3, Participation: 3, Presentation: 3, Discipline: 3},
		TotalScore: 12,
		Percentage: 60,
		Status:     models.ReviewStatusGraded,
		GradedAt:   time.Now(),
	}

	// Snapshot taken at revision 0; a competing save lands first.
	require.NoError(t, repo.UpdateReview(context.Background(), seeded.RowID, update))

	err := repo.UpdateReviewIfRevision(context.Background(), seeded.RowID, 0, update)
	require.ErrorIs(t, err, ErrRevisionConflict)

	// A snapshot at the current revision succeeds.
	require.NoError(t, repo.UpdateReviewIfRevision(context.Background(), seeded.RowID, 1, update))

	stored, err := repo.GetByID(context.Background(), seeded.RowID)
	require.NoError(t, err)
	require.Equal(t, int64(2), stored.Revision)
}

func TestSubmissionRepositoryListOrdersByRowID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	first := seedSubmission(t, db)
	second := seedSubmission(t, db)

	submissions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	require.Equal(t, first.RowID, submissions[0].RowID)
	require.Equal(t, second.RowID, submissions[1].RowID)
}
