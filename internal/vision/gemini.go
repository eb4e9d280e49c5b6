package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/streetsweepai/streetsweep-service/internal/config"
)

const classifyPrompt = `You are a city cleanliness inspector.
Given this single CCTV frame, estimate how much visible trash/litter is present.
Return ONLY a JSON object with one key:
- "severity": an integer from 1 to 10
(1 = very clean, 10 = extremely trashy).
Example:
{"severity": 7}`

const comparePrompt = `You are a city cleanliness inspector.

You are given TWO photos:
- Photo A: supposed 'before' image of a location with trash.
- Photo B: supposed 'after' image of the same location after cleanup.

Your tasks:
1. Decide if these two photos show the SAME physical location
   (allowing for different angles, lighting, time of day, and amount of trash).
2. If they are the same location, decide if the amount of visible trash/litter
   in Photo B is clearly LESS than in Photo A (cleanup success).

Return ONLY a JSON object with the following keys:
- "same_location": true or false
- "cleanup_successful": true or false`

// Gemini adapts the Gemini API to the vision collaborator interfaces.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini constructs a Gemini-backed vision client.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not provided")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Classify scores an image for litter severity. Unparseable responses
// yield a Classification with nil Severity, not an error.
func (g *Gemini) Classify(ctx context.Context, image []byte) (Classification, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(classifyPrompt),
		genai.NewPartFromBytes(image, "image/jpeg"),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Classification{}, err
	}

	return Classification{
		Severity:    parseSeverity(resp.Text()),
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	}, nil
}

// Compare verifies a before/after image pair for cleanup success.
func (g *Gemini) Compare(ctx context.Context, before, after []byte) (Comparison, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(comparePrompt),
		genai.NewPartFromBytes(before, "image/jpeg"),
		genai.NewPartFromBytes(after, "image/jpeg"),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Comparison{}, err
	}

	var result Comparison
	text := stripCodeFence(strings.TrimSpace(resp.Text()))
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		// absent fields signal an unusable verdict
		return Comparison{}, nil
	}
	return result, nil
}

// GenerateInsight asks the model for a municipal planning summary.
func (g *Gemini) GenerateInsight(ctx context.Context, summary InsightSummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	prompt := "You are a municipal waste planning assistant.\n" +
		"Data summary: " + string(data) + "\n\n" +
		"Explain:\n" +
		"1) Key problem areas and trends.\n" +
		"2) Operational improvements (routing, frequency, scheduling).\n" +
		"3) Policy ideas (education, enforcement, infrastructure).\n" +
		"Keep it concise and specific."

	contents := []*genai.Content{genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
