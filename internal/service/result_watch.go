package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/dto"
)

// ResultWatcher re-checks a student's result on a fixed interval while the
// student waits for grading. Each watch is a task owned by its caller: it
// stops on its own once the result turns Graded, and cancelling the context
// tears it down immediately.
type ResultWatcher struct {
	submissions SubmissionService
	interval    time.Duration
	logger      zerolog.Logger
}

// NewResultWatcher constructs a watcher polling at the given interval.
func NewResultWatcher(submissions SubmissionService, interval time.Duration, logger zerolog.Logger) *ResultWatcher {
	if interval <= 0 {
		interval = 20 * time.Second
	}

	return &ResultWatcher{
		submissions: submissions,
		interval:    interval,
		logger:      logger.With().Str("component", "result_watcher").Logger(),
	}
}

// Watch polls the result for the query until it is graded or ctx is
// cancelled. Every fetched result is delivered on the returned channel, which
// is closed when the watch ends. Transient lookup failures are logged and the
// poll keeps going.
func (w *ResultWatcher) Watch(ctx context.Context, query dto.ResultQuery) <-chan dto.ResultResponse {
	updates := make(chan dto.ResultResponse, 1)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			result, err := w.submissions.Result(ctx, query)
			if err != nil {
				w.logger.Warn().Err(err).Str("name", query.Name).Msg("result poll failed")
			} else {
				select {
				case updates <- result:
				case <-ctx.Done():
					return
				}
				if result.Status == dto.ResultStatusGraded {
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates
}
