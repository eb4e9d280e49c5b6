package vision

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"
)

// Classification is the result of a severity inspection. Severity is nil
// when the model response carried no usable value.
type Classification struct {
	Severity    *int   `json:"severity"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// Comparison is the result of a before/after cleanup verification.
type Comparison struct {
	SameLocation      *bool `json:"same_location"`
	CleanupSuccessful *bool `json:"cleanup_successful"`
}

// InsightSummary aggregates ticket data for insight generation.
type InsightSummary struct {
	TotalTickets         int             `json:"total_tickets"`
	SeverityDistribution map[int]int     `json:"severity_distribution"`
	TopLocations         []LocationCount `json:"top_locations"`
}

// LocationCount pairs a coordinate with its ticket count.
type LocationCount struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Count int     `json:"count"`
}

// Classifier scores an image for litter severity on a 1-10 scale.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Classification, error)
}

// Comparer verifies a before/after image pair.
type Comparer interface {
	Compare(ctx context.Context, before, after []byte) (Comparison, error)
}

// InsightGenerator produces a planning summary from ticket aggregates.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, summary InsightSummary) (string, error)
}

// parseSeverity extracts a severity value from a model response. It first
// tries strict JSON ({"severity": 7}); if that fails it falls back to
// concatenating any digits found in the text. No digits means no severity.
func parseSeverity(text string) *int {
	text = stripCodeFence(strings.TrimSpace(text))

	var payload struct {
		Severity *int `json:"severity"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err == nil && payload.Severity != nil {
		return payload.Severity
	}

	var digits strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return nil
	}
	sev := 0
	for _, r := range digits.String() {
		sev = sev*10 + int(r-'0')
	}
	return &sev
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
