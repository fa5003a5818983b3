package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
)

// StatsService aggregates the dashboard numbers. Results are cached in redis
// for a short TTL so refresh-happy dashboards do not rescan the table.
type StatsService interface {
	Stats(ctx context.Context, activityFilter string) (dto.StatsResponse, error)
	// Invalidate drops cached stats; called after grades change.
	Invalidate(ctx context.Context)
}

type statsService struct {
	repo   repository.SubmissionRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStatsService constructs the dashboard stats service. A nil cache client
// disables caching entirely.
func NewStatsService(repo repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	return &statsService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "stats_service").Logger(),
	}
}

func statsCacheKey(activityFilter string) string {
	if activityFilter == "" {
		activityFilter = FilterAll
	}
	return fmt.Sprintf("kai:stats:%s", activityFilter)
}

func (s *statsService) Stats(ctx context.Context, activityFilter string) (dto.StatsResponse, error) {
	if activityFilter == "" {
		activityFilter = FilterAll
	}

	key := statsCacheKey(activityFilter)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var response dto.StatsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}
	}

	submissions, err := s.repo.List(ctx)
	if err != nil {
		return dto.StatsResponse{}, err
	}

	response := computeStats(submissions, activityFilter)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("stats cache write failed")
			}
		}
	}

	return response, nil
}

func (s *statsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	keys := []string{
		statsCacheKey(FilterAll),
		statsCacheKey(models.ActivitySportsDay),
		statsCacheKey(models.ActivityChildrenDay),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

// scoreBands are the dashboard's fixed total-score ranges.
func scoreBands() []dto.ScoreBand {
	return []dto.ScoreBand{
		{Label: "ดีเยี่ยม (18-20)", Min: 18, Max: 20},
		{Label: "ดี (14-17)", Min: 14, Max: 17},
		{Label: "พอใช้ (10-13)", Min: 10, Max: 13},
		{Label: "ควรปรับปรุง (0-9)", Min: 0, Max: 9},
	}
}

func computeStats(submissions []models.Submission, activityFilter string) dto.StatsResponse {
	response := dto.StatsResponse{
		ActivityFilter: activityFilter,
		Distribution:   scoreBands(),
	}

	scored := SelectAndOrder(submissions, Criteria{ActivityType: activityFilter}, SortOldest)
	response.Total = len(scored)

	roomTotals := make(map[string]int)
	roomCounts := make(map[string]int)
	sumScores := 0

	for _, submission := range scored {
		if !submission.IsGraded() {
			response.PendingCount++
			continue
		}

		response.GradedCount++
		sumScores += submission.TotalScore
		roomTotals[submission.Room] += submission.TotalScore
		roomCounts[submission.Room]++

		for i := range response.Distribution {
			band := &response.Distribution[i]
			if submission.TotalScore >= band.Min && submission.TotalScore <= band.Max {
				band.Count++
				break
			}
		}
	}

	if response.GradedCount > 0 {
		response.AverageScore = round2(float64(sumScores) / float64(response.GradedCount))
	}

	response.RoomAverages = make([]dto.RoomAverage, 0, len(models.Rooms()))
	for _, room := range models.Rooms() {
		average := 0.0
		if roomCounts[room] > 0 {
			average = round2(float64(roomTotals[room]) / float64(roomCounts[room]))
		}
		response.RoomAverages = append(response.RoomAverages, dto.RoomAverage{Room: room, Average: average})
	}

	// Pending per activity always counts over the full list, so the banner
	// shows outstanding work even when the dashboard is filtered.
	for _, submission := range submissions {
		if submission.IsGraded() {
			continue
		}
		switch submission.ActivityType {
		case models.ActivitySportsDay:
			response.SportsDayPending++
		case models.ActivityChildrenDay:
			response.ChildrenDayPending++
		}
	}

	return response
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
