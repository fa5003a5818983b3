package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// GradedEvent is published whenever a review is saved, so downstream
// consumers (notifications, sheets sync) can react without polling.
type GradedEvent struct {
	RowID       uint      `json:"rowId"`
	StudentName string    `json:"studentName"`
	Activity    string    `json:"activity"`
	TotalScore  int       `json:"totalScore"`
	Percentage  int       `json:"percentage"`
	AutoGraded  bool      `json:"autoGraded"`
	GradedBy    string    `json:"gradedBy"`
	GradedAt    time.Time `json:"gradedAt"`
}

// EventPublisher fans grading events out to interested consumers.
type EventPublisher interface {
	PublishGraded(ctx context.Context, event GradedEvent) error
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventPublisher builds a publisher over the given connection. A nil
// connection yields a publisher that drops events silently.
func NewNATSEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = "kai.submissions.graded"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) PublishGraded(_ context.Context, event GradedEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("row_id", event.RowID).Msg("failed to publish graded event")
		return err
	}

	return nil
}
