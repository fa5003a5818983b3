package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMalformedResponse indicates the model returned a payload that does not
// satisfy the rubric schema. Callers must treat the scores as unusable.
var ErrMalformedResponse = errors.New("malformed ai scoring response")

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kai",
		Subsystem: "ai",
		Name:      "scoring_duration_seconds",
		Help:      "Duration of AI rubric scoring requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kai",
		Subsystem: "ai",
		Name:      "scoring_failures_total",
		Help:      "Number of AI rubric scoring failures",
	}, []string{"model"})
)

// The model response is never trusted implicitly: it must validate against
// this schema before the scores are accepted.
const scoreSchemaJSON = `{
  "type": "object",
  "properties": {
    "contentAccuracy": {"type": "integer", "minimum": 0, "maximum": 5},
    "participation": {"type": "integer", "minimum": 0, "maximum": 5},
    "presentation": {"type": "integer", "minimum": 0, "maximum": 5},
    "discipline": {"type": "integer", "minimum": 0, "maximum": 5},
    "comment": {"type": "string", "minLength": 1}
  },
  "required": ["contentAccuracy", "participation", "presentation", "discipline", "comment"]
}`

var scoreSchema = jsonschema.MustCompileString("rubric_score.schema.json", scoreSchemaJSON)

// OpenAIConfig defines configuration options for the OpenAI rubric scorer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIScorer implements Scorer against the OpenAI chat completion API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds a new scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	tracer := otel.Tracer("github.com/prapars-lang/kai/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIScorer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Score asks the model for rubric scores and validates the reply before
// returning it.
func (s *OpenAIScorer) Score(parent context.Context, input ScoreInput) (ScoreResult, error) {
	ctx, span := s.tracer.Start(parent, "openai.score", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: scorerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(s.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, fmt.Errorf("openai score: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseScoreResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ScoreResult{}, err
	}

	return result, nil
}

func scorerSystemPrompt() string {
	return "คุณเป็นคุณครูผู้เชี่ยวชาญด้านสุขศึกษาและพลศึกษา ประเมินวิดีโอส่งงานของนักเรียน " +
		"ตอบกลับเป็น JSON object ที่มี contentAccuracy, participation, presentation, discipline " +
		"(จำนวนเต็ม 0-5) และ comment ภาษาไทยสั้นๆ"
}

func buildUserPrompt(input ScoreInput) string {
	builder := strings.Builder{}
	builder.WriteString("นักเรียนชื่อ \"")
	builder.WriteString(input.StudentName)
	builder.WriteString("\" ระดับชั้น ")
	builder.WriteString(input.Grade)
	builder.WriteString(" กิจกรรม: ")
	builder.WriteString(input.ActivityType)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

// ParseScoreResponse validates the raw model output against the rubric schema
// and decodes it. Any shape or range violation yields ErrMalformedResponse.
func ParseScoreResponse(content string) (ScoreResult, error) {
	var generic interface{}
	if err := json.Unmarshal([]byte(content), &generic); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := scoreSchema.Validate(generic); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var result ScoreResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return result, nil
}
