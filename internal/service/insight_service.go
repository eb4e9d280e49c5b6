package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/streetsweepai/streetsweep-service/internal/repository"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

const insightKey = "insight:latest"

// InsightService turns ticket aggregates into a cached planning summary.
type InsightService struct {
	tickets   repository.TicketRepository
	generator vision.InsightGenerator
	cache     *redis.Client
	logger    *zap.Logger
}

// NewInsightService constructs the service.
func NewInsightService(tickets repository.TicketRepository, generator vision.InsightGenerator, cache *redis.Client, logger *zap.Logger) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{tickets: tickets, generator: generator, cache: cache, logger: logger}
}

// Generate aggregates all tickets, asks the vision collaborator for a
// summary, and caches the text. Runs after each pipeline cycle.
func (s *InsightService) Generate(ctx context.Context) (string, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return "", err
	}
	if len(tickets) == 0 {
		return "", apperrors.NewNotFound("tickets", nil)
	}

	summary := vision.InsightSummary{
		TotalTickets:         len(tickets),
		SeverityDistribution: make(map[int]int),
	}
	locationCounts := make(map[string]vision.LocationCount)
	for _, t := range tickets {
		summary.SeverityDistribution[t.Severity]++
		key := fmt.Sprintf("%.4f,%.4f", t.Location.Lat, t.Location.Lon)
		entry := locationCounts[key]
		entry.Lat = t.Location.Lat
		entry.Lon = t.Location.Lon
		entry.Count++
		locationCounts[key] = entry
	}
	for _, entry := range locationCounts {
		summary.TopLocations = append(summary.TopLocations, entry)
	}
	sort.Slice(summary.TopLocations, func(i, j int) bool {
		return summary.TopLocations[i].Count > summary.TopLocations[j].Count
	})
	if len(summary.TopLocations) > 10 {
		summary.TopLocations = summary.TopLocations[:10]
	}

	text, err := s.generator.GenerateInsight(ctx, summary)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, insightKey, text, 0).Err(); err != nil {
		s.logger.Warn("failed to cache insight", zap.Error(err))
	}
	return text, nil
}

// Latest returns the most recently generated insight text.
func (s *InsightService) Latest(ctx context.Context) (string, error) {
	text, err := s.cache.Get(ctx, insightKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NewNotFound("insight", nil)
		}
		return "", apperrors.NewStoreUnavailable(err)
	}
	return text, nil
}
