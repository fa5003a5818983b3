package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prapars-lang/kai/internal/models"
)

func TestExportCSVOrdering(t *testing.T) {
	a := gradedWithScore(1, "Anan", "10", models.Room2, 20)
	b := gradedWithScore(2, "Beam", "2", models.Room1, 15)
	c := gradedWithScore(3, "Choy", "1", models.Room1, 12)

	repo := newFakeSubmissionRepo(a, b, c)
	svc := NewExportService(repo, "Teacher Noi", zerolog.Nop())

	export, err := svc.CSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimPrefix(string(export.Content), csvBOM), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[1], "1,Choy,"))
	require.True(t, strings.HasPrefix(lines[2], "2,Beam,"))
	require.True(t, strings.HasPrefix(lines[3], "10,Anan,"))
}

func TestExportCSVFormat(t *testing.T) {
	graded := gradedWithScore(1, "Anan", "1", models.Room1, 16)
	graded.ContentAccuracy = 4
	graded.Participation = 4
	graded.Presentation = 4
	graded.Discipline = 4
	graded.Percentage = 80
	graded.Comment = `เก่งมาก "สุดยอด", ทำต่อไป`

	repo := newFakeSubmissionRepo(graded, pendingSubmission(2, "Beam", "2"))
	svc := NewExportService(repo, "Teacher Noi", zerolog.Nop())
	svc.(*exportService).now = func() time.Time {
		return time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	}

	export, err := svc.CSV(context.Background())
	require.NoError(t, err)
	require.Equal(t, "คะแนน_2026-02-14.csv", export.Filename)

	content := string(export.Content)
	require.True(t, strings.HasPrefix(content, csvBOM))

	lines := strings.Split(strings.TrimPrefix(content, csvBOM), "\n")
	require.Equal(t, strings.Join(csvHeaders, ","), lines[0])
	require.Equal(t, `1,Anan,Prathom 5,Room 1,Sports Day,4,4,4,4,16,80,"เก่งมาก ""สุดยอด"", ทำต่อไป"`, lines[1])
	// Ungraded rows export zeros and an empty quoted comment.
	require.Equal(t, `2,Beam,Prathom 5,Room 1,Sports Day,0,0,0,0,0,0,""`, lines[2])
}

func TestExportReportRefusesEmptyMatch(t *testing.T) {
	repo := newFakeSubmissionRepo(gradedWithScore(1, "Anan", "1", models.Room1, 20))
	svc := NewExportService(repo, "Teacher Noi", zerolog.Nop())

	_, err := svc.Report(context.Background(), ReportRequest{
		Grade:        models.GradePrathom6,
		Room:         models.Room3,
		ActivityType: models.ActivitySportsDay,
	})
	require.ErrorIs(t, err, ErrNoMatchingRecords)
}

func TestExportReportRendersClassroom(t *testing.T) {
	first := gradedWithScore(1, "Anan", "2", models.Room1, 18)
	first.Comment = "ตั้งใจดี"
	second := gradedWithScore(2, "Beam", "1", models.Room1, 14)
	second.Comment = `<script>alert("x")</script>ขยันมาก`
	pending := pendingSubmission(3, "Choy", "3")

	repo := newFakeSubmissionRepo(first, second, pending)
	svc := NewExportService(repo, "Teacher Noi", zerolog.Nop())

	report, err := svc.Report(context.Background(), ReportRequest{
		Grade:        models.GradePrathom5,
		Room:         models.Room1,
		ActivityType: models.ActivitySportsDay,
	})
	require.NoError(t, err)

	html := string(report)
	require.Contains(t, html, "รายงานสรุปคะแนนวิชาสุขศึกษาและพลศึกษา")
	require.Contains(t, html, "ประถมศึกษาปีที่ 5")
	require.Contains(t, html, "ห้อง 1")
	require.Contains(t, html, "Teacher Noi")

	// Beam (number 1) precedes Anan (number 2).
	require.Less(t, strings.Index(html, "Beam"), strings.Index(html, "Anan"))

	// Markup in comments is stripped, not rendered.
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "ขยันมาก")

	// The ungraded classmate prints with dashes.
	require.Contains(t, html, "Choy")
	require.Contains(t, html, "<td>-</td>")
}
