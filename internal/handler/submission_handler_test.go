package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/config"
	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/handler"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
	"github.com/prapars-lang/kai/internal/router"
	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/pkg/ai"
)

// mp4Header sniffs as video/mp4.
var mp4Header = []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2avc1mp41")

type stubUploader struct{}

func (s *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://videos.test/" + name, nil
}

type stubScorer struct {
	result ai.ScoreResult
	err    error
}

func (s *stubScorer) Score(_ context.Context, _ ai.ScoreInput) (ai.ScoreResult, error) {
	if s.err != nil {
		return ai.ScoreResult{}, s.err
	}
	return s.result, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishGraded(context.Context, service.GradedEvent) error { return nil }

func setupApp(t *testing.T, scorer ai.Scorer) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.Teacher{}, &models.ActivityLog{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	recorder := service.NewActivityRecorder(activityRepo, logger)

	submissionService := service.NewSubmissionService(submissionRepo, validate, &stubUploader{}, logger)
	watcher := service.NewResultWatcher(submissionService, 10*time.Millisecond, logger)
	gradingService := service.NewGradingService(submissionRepo, scorer, recorder, noopPublisher{}, logger)
	bulkService := service.NewBulkService(submissionRepo, scorer, recorder, noopPublisher{}, logger)
	statsService := service.NewStatsService(submissionRepo, nil, time.Minute, logger)
	exportService := service.NewExportService(submissionRepo, "Teacher Noi", logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, watcher, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, bulkService, statsService, logger),
		StatsHandler:      handler.NewStatsHandler(statsService, logger),
		ExportHandler:     handler.NewExportHandler(exportService, logger),
		ActivityHandler:   handler.NewActivityHandler(recorder, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("teacher_id", uint(1))
			c.Locals("teacher_name", "Teacher Noi")
			return c.Next()
		},
	})

	return app, db
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func uploadSubmission(t *testing.T, app *fiber.App, name, number string) dto.SubmissionResponse {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("name", name))
	require.NoError(t, writer.WriteField("studentNumber", number))
	require.NoError(t, writer.WriteField("grade", models.GradePrathom5))
	require.NoError(t, writer.WriteField("room", models.Room1))
	require.NoError(t, writer.WriteField("activityType", models.ActivitySportsDay))
	part, err := writer.CreateFormFile("file", "dance.mp4")
	require.NoError(t, err)
	_, err = part.Write(mp4Header)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.NotZero(t, created.Data.RowID)
	return created.Data
}

func TestSubmissionUploadAndList(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})

	created := uploadSubmission(t, app, "Anan", "1")
	require.Equal(t, "https://videos.test/dance.mp4", created.FileURL)
	require.Nil(t, created.Review)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/submissions?room=Room+1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listed struct {
		Success bool                     `json:"success"`
		Data    []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 1)
	require.Equal(t, "Anan", listed.Data[0].Name)
}

func TestSubmissionUploadRejectsNonVideo(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("name", "Anan"))
	require.NoError(t, writer.WriteField("studentNumber", "1"))
	require.NoError(t, writer.WriteField("grade", models.GradePrathom5))
	require.NoError(t, writer.WriteField("room", models.Room1))
	require.NoError(t, writer.WriteField("activityType", models.ActivitySportsDay))
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text, not a video"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionUploadValidation(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("name", "Anan"))
	require.NoError(t, writer.WriteField("studentNumber", "1"))
	require.NoError(t, writer.WriteField("grade", "Prathom 9"))
	require.NoError(t, writer.WriteField("room", models.Room1))
	require.NoError(t, writer.WriteField("activityType", models.ActivitySportsDay))
	part, err := writer.CreateFormFile("file", "dance.mp4")
	require.NoError(t, err)
	_, err = part.Write(mp4Header)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionResultLookup(t *testing.T) {
	app, _ := setupApp(t, &stubScorer{})
	uploadSubmission(t, app, "Anan Srisuk", "1")

	resp, err := app.Test(httptest.NewRequest("GET",
		"/api/v1/submissions/result?name=anan&grade=Prathom+5&room=Room+1&activityType=Sports+Day", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Data dto.ResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &result)
	require.Equal(t, dto.ResultStatusAwaiting, result.Data.Status)
	require.NotNil(t, result.Data.Submission)

	resp, err = app.Test(httptest.NewRequest("GET",
		"/api/v1/submissions/result?name=nobody&grade=Prathom+5&room=Room+1&activityType=Sports+Day", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	result.Data = dto.ResultResponse{}
	decodeResponse(t, resp, &result)
	require.Equal(t, dto.ResultStatusNotFound, result.Data.Status)
	require.Nil(t, result.Data.Submission)
}
