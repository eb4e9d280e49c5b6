package service

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

type captureGenerator struct {
	summary vision.InsightSummary
	text    string
}

func (g *captureGenerator) GenerateInsight(_ context.Context, summary vision.InsightSummary) (string, error) {
	g.summary = summary
	return g.text, nil
}

// unreachableCache points at a closed port; Set failures are tolerated.
func unreachableCache() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func TestGenerateAggregatesTickets(t *testing.T) {
	tickets := newFakeTicketRepo()
	for _, tk := range []domain.Ticket{
		{Severity: 7, Location: domain.Location{Lat: 43.65, Lon: -79.38}},
		{Severity: 7, Location: domain.Location{Lat: 43.65, Lon: -79.38}},
		{Severity: 3, Location: domain.Location{Lat: 43.70, Lon: -79.40}},
	} {
		ticket := tk
		require.NoError(t, tickets.Create(context.Background(), &ticket))
	}

	generator := &captureGenerator{text: "hotspot on King St"}
	svc := NewInsightService(tickets, generator, unreachableCache(), nil)

	text, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hotspot on King St", text)

	assert.Equal(t, 3, generator.summary.TotalTickets)
	assert.Equal(t, 2, generator.summary.SeverityDistribution[7])
	assert.Equal(t, 1, generator.summary.SeverityDistribution[3])
	require.NotEmpty(t, generator.summary.TopLocations)
	assert.Equal(t, 2, generator.summary.TopLocations[0].Count)
}

func TestGenerateWithNoTickets(t *testing.T) {
	svc := NewInsightService(newFakeTicketRepo(), &captureGenerator{}, unreachableCache(), nil)

	_, err := svc.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestLatestWhenCacheUnreachable(t *testing.T) {
	svc := NewInsightService(newFakeTicketRepo(), &captureGenerator{}, unreachableCache(), nil)

	_, err := svc.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_UNAVAILABLE"))
}
