package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/pkg/ai"
)

func doJSON(t *testing.T, app *fiber.App, method, target string, payload interface{}) (int, []byte) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	data := make([]byte, 0)
	if resp.Body != nil {
		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		data = buf.Bytes()
	}

	return resp.StatusCode, data
}

func TestGradingWorkflowOverHTTP(t *testing.T) {
	scorer := &stubScorer{result: ai.ScoreResult{
		ContentAccuracy: 4, Participation: 5, Presentation: 4, Discipline: 5, Comment: "ตั้งใจมาก",
	}}
	app, _ := setupApp(t, scorer)

	created := uploadSubmission(t, app, "Anan", "1")

	status, _ := doJSON(t, app, "POST", "/api/v1/teacher/grading/1/start", nil)
	require.Equal(t, fiber.StatusOK, status)

	// A second session cannot start while the first is editing.
	status, _ = doJSON(t, app, "POST", "/api/v1/teacher/grading/1/start", nil)
	require.Equal(t, fiber.StatusConflict, status)

	status, body := doJSON(t, app, "PATCH", "/api/v1/teacher/grading/session/dimension",
		dto.DimensionUpdateRequest{Key: models.DimensionContentAccuracy, Value: 5})
	require.Equal(t, fiber.StatusOK, status)

	var sessionResp struct {
		Data dto.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &sessionResp))
	require.Equal(t, 5, sessionResp.Data.TotalScore)

	status, _ = doJSON(t, app, "PATCH", "/api/v1/teacher/grading/session/comment",
		dto.CommentUpdateRequest{Comment: "ขยันมาก"})
	require.Equal(t, fiber.StatusOK, status)

	status, body = doJSON(t, app, "POST", "/api/v1/teacher/grading/session/save", nil)
	require.Equal(t, fiber.StatusOK, status)

	var saveResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &saveResp))
	require.Equal(t, created.RowID, saveResp.Data.RowID)
	require.NotNil(t, saveResp.Data.Review)
	require.Equal(t, 5, saveResp.Data.Review.TotalScore)
	require.Equal(t, "ขยันมาก", saveResp.Data.Review.Comment)

	// The session is closed after save.
	status, _ = doJSON(t, app, "GET", "/api/v1/teacher/grading/session", nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestGradingAutoSuggestOverHTTP(t *testing.T) {
	scorer := &stubScorer{result: ai.ScoreResult{
		ContentAccuracy: 3, Participation: 4, Presentation: 3, Discipline: 4, Comment: "มีส่วนร่วมดี",
	}}
	app, _ := setupApp(t, scorer)
	uploadSubmission(t, app, "Anan", "1")

	status, _ := doJSON(t, app, "POST", "/api/v1/teacher/grading/1/start", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := doJSON(t, app, "POST", "/api/v1/teacher/grading/session/auto", nil)
	require.Equal(t, fiber.StatusOK, status)

	var sessionResp struct {
		Data dto.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &sessionResp))
	require.Equal(t, 14, sessionResp.Data.TotalScore)
	require.Contains(t, sessionResp.Data.Comment, "มีส่วนร่วมดี")
}

func TestGradingAutoSuggestFailure(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{err: errors.New("model unavailable")})
	uploadSubmission(t, app, "Anan", "1")

	status, _ := doJSON(t, app, "POST", "/api/v1/teacher/grading/1/start", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "POST", "/api/v1/teacher/grading/session/auto", nil)
	require.Equal(t, fiber.StatusBadGateway, status)

	// The session survives the failed suggestion.
	status, _ = doJSON(t, app, "GET", "/api/v1/teacher/grading/session", nil)
	require.Equal(t, fiber.StatusOK, status)
}

func TestGradingCancelOverHTTP(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})
	uploadSubmission(t, app, "Anan", "1")

	status, _ := doJSON(t, app, "POST", "/api/v1/teacher/grading/1/start", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "DELETE", "/api/v1/teacher/grading/session", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "DELETE", "/api/v1/teacher/grading/session", nil)
	require.Equal(t, fiber.StatusConflict, status)
}

func TestBulkGradingOverHTTP(t *testing.T) {
	scorer := &stubScorer{result: ai.ScoreResult{
		ContentAccuracy: 4, Participation: 4, Presentation: 4, Discipline: 4, Comment: "ดีมาก",
	}}
	app, _ := setupApp(t, scorer)
	uploadSubmission(t, app, "Anan", "1")
	uploadSubmission(t, app, "Beam", "2")

	status, body := doJSON(t, app, "POST", "/api/v1/teacher/grading/bulk", nil)
	require.Equal(t, fiber.StatusOK, status)

	var bulkResp struct {
		Data dto.BulkReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &bulkResp))
	require.Equal(t, 2, bulkResp.Data.Total)
	require.Equal(t, 2, bulkResp.Data.Graded)

	// Re-running finds nothing pending.
	status, body = doJSON(t, app, "POST", "/api/v1/teacher/grading/bulk", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &bulkResp))
	require.Equal(t, 0, bulkResp.Data.Total)
}

func TestStatsEndpoint(t *testing.T) {
	scorer := &stubScorer{result: ai.ScoreResult{
		ContentAccuracy: 5, Participation: 5, Presentation: 5, Discipline: 5, Comment: "สุดยอด",
	}}
	app, _ := setupApp(t, scorer)
	uploadSubmission(t, app, "Anan", "1")
	uploadSubmission(t, app, "Beam", "2")

	status, _ := doJSON(t, app, "POST", "/api/v1/teacher/grading/bulk", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := doJSON(t, app, "GET", "/api/v1/teacher/stats", nil)
	require.Equal(t, fiber.StatusOK, status)

	var statsResp struct {
		Data dto.StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &statsResp))
	require.Equal(t, 2, statsResp.Data.Total)
	require.Equal(t, 2, statsResp.Data.GradedCount)
	require.InDelta(t, 20.0, statsResp.Data.AverageScore, 0.001)
}

func TestExportEndpoints(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})
	uploadSubmission(t, app, "Anan", "1")

	status, body := doJSON(t, app, "GET", "/api/v1/teacher/export/csv", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, bytes.HasPrefix(body, []byte("\ufeff")))

	// The uploaded classroom renders a report.
	status, _ = doJSON(t, app, "GET",
		"/api/v1/teacher/export/report?grade=Prathom+5&room=Room+1&activity=Sports+Day", nil)
	require.Equal(t, fiber.StatusOK, status)

	// An empty classroom refuses.
	status, _ = doJSON(t, app, "GET",
		"/api/v1/teacher/export/report?grade=Prathom+6&room=Room+4&activity=Sports+Day", nil)
	require.Equal(t, fiber.StatusNotFound, status)
}
