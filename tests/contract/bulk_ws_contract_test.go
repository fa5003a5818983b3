package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/handler"
	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/service"
)

type stubGradingService struct{}

func (stubGradingService) Start(context.Context, uint) (dto.SessionResponse, error) {
	return dto.SessionResponse{}, service.ErrSubmissionNotFound
}
func (stubGradingService) Session() (dto.SessionResponse, bool) { return dto.SessionResponse{}, false }
func (stubGradingService) UpdateDimension(context.Context, dto.DimensionUpdateRequest) (dto.SessionResponse, error) {
	return dto.SessionResponse{}, service.ErrNoEditingSession
}
func (stubGradingService) UpdateComment(context.Context, dto.CommentUpdateRequest) (dto.SessionResponse, error) {
	return dto.SessionResponse{}, service.ErrNoEditingSession
}
func (stubGradingService) AutoGrade(context.Context) (dto.SessionResponse, error) {
	return dto.SessionResponse{}, service.ErrNoEditingSession
}
func (stubGradingService) Save(context.Context, service.Actor) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, service.ErrNoEditingSession
}
func (stubGradingService) Cancel() error { return service.ErrNoEditingSession }

// stubBulkService streams a fixed three-item run to the observer.
type stubBulkService struct{}

func (stubBulkService) GradeAll(_ context.Context, _ service.Criteria, _ service.SortKey, _ service.Actor, observer service.BulkObserver) (dto.BulkReport, error) {
	names := []string{"Anan", "Beam", "Choy"}
	items := make([]dto.BulkItemOutcome, 0, len(names))
	for i, name := range names {
		if observer != nil {
			observer.Progress(dto.BulkProgress{Current: i + 1, Total: len(names), CurrentName: name})
		}
		items = append(items, dto.BulkItemOutcome{RowID: uint(i + 1), StudentName: name, Outcome: dto.BulkOutcomeGraded, TotalScore: 16})
	}
	return dto.BulkReport{Total: 3, Graded: 3, Items: items}, nil
}

type stubStatsService struct{}

func (stubStatsService) Stats(context.Context, string) (dto.StatsResponse, error) {
	return dto.StatsResponse{}, nil
}
func (stubStatsService) Invalidate(context.Context) {}

type wsMessage struct {
	Type     string            `json:"type"`
	Progress *dto.BulkProgress `json:"progress"`
	Report   *dto.BulkReport   `json:"report"`
}

// The bulk websocket must deliver one 1-based progress frame per item, in
// order, followed by a single report frame.
func TestBulkWebsocketMessageContract(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())

	gradingHandler := handler.NewGradingHandler(stubGradingService{}, stubBulkService{}, stubStatsService{}, zerolog.Nop())
	group := app.Group("/api/v1/teacher/grading", func(c *fiber.Ctx) error {
		c.Locals("teacher_id", uint(1))
		c.Locals("teacher_name", "Teacher Noi")
		return c.Next()
	})
	gradingHandler.Register(group)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/teacher/grading/bulk/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	var messages []wsMessage
	for {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var message wsMessage
		if err := json.Unmarshal(payload, &message); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		messages = append(messages, message)
		if message.Type == "report" {
			break
		}
	}

	if len(messages) != 4 {
		t.Fatalf("expected 3 progress frames and 1 report frame, got %d frames", len(messages))
	}

	for i := 0; i < 3; i++ {
		if messages[i].Type != "progress" || messages[i].Progress == nil {
			t.Fatalf("frame %d is not a progress frame", i)
		}
		if messages[i].Progress.Current != i+1 || messages[i].Progress.Total != 3 {
			t.Fatalf("frame %d carries wrong counters: %+v", i, messages[i].Progress)
		}
	}

	report := messages[3]
	if report.Report == nil || report.Report.Graded != 3 {
		t.Fatalf("report frame malformed: %+v", report.Report)
	}
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}
