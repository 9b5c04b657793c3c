// Package narrative turns affect scores into human-readable text via a
// remote chat-completions endpoint, with deterministic local fallbacks.
package narrative

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/neurotune/backend/internal/affect"
)

// defaultEndpoint is the GitHub Models chat-completions endpoint
// (OpenAI-compatible).
const defaultEndpoint = "https://models.inference.ai.azure.com/chat/completions"

// Generator calls the text-generation endpoint. A zero token disables remote
// calls entirely; every operation then uses its local fallback.
type Generator struct {
	endpoint string
	model    string
	token    string
	client   *resty.Client
}

// NewGenerator creates a Generator for the given bearer token and model.
func NewGenerator(token, model string) *Generator {
	if model == "" {
		model = "gpt-4o"
	}
	return &Generator{
		endpoint: defaultEndpoint,
		model:    model,
		token:    token,
		client:   resty.New().SetTimeout(30 * time.Second),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completions round trip.
func (g *Generator) complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	var result chatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.token).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: prompt},
			},
			Model:       g.model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		}).
		SetResult(&result).
		Post(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("calling text-generation endpoint: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("text-generation endpoint returned status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in text-generation response")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// Report describes the user's current mental state and suggests music for
// it. Falls back to a deterministic templated report when no token is
// configured or the remote call fails.
func (g *Generator) Report(ctx context.Context, scores affect.Scores) string {
	if g.token == "" {
		return fallbackReport(scores)
	}

	dominant := "Relaxed/Drowsy"
	if scores.Focus > scores.Relax {
		dominant = "High Concentration"
	}
	prompt := fmt.Sprintf(`You are an expert Neuroscientist and Music Therapist.
Analyze the following EEG (brainwave) data for a user:

- Focus Score (Beta/Theta): %.1f%%
- Relaxation Score (Alpha/Beta): %.1f%%
- Stress/Arousal Level: %.1f%%
- Dominant State: %s
- Valence (Positive Emotion): %.1f%%

Based on this data:
1. Describe the user's current mental state in 2-3 sentences.
2. Suggest the best type of music (genre, BPM, mood) to either maintain this state (if positive) or improve it (if stressed or drowsy).
3. Keep the tone professional yet empathetic.`,
		scores.Focus*100, scores.Relax*100, scores.Arousal*100, dominant, scores.Valence*100)

	text, err := g.complete(ctx, "You are a helpful assistant.", prompt, 0.7, 500)
	if err != nil {
		log.Printf("narrative: report generation failed, using fallback: %v", err)
		return fallbackReport(scores)
	}
	return text
}

// fallbackReport is the deterministic local report used when the remote
// endpoint is unavailable.
func fallbackReport(scores affect.Scores) string {
	focused := scores.Focus > scores.Relax
	stressed := scores.Arousal > 0.7

	var b strings.Builder
	b.WriteString("[Local analysis mode]\n\n")
	if focused {
		b.WriteString("Your brainwave data shows that concentration is currently dominant. ")
	} else {
		b.WriteString("Your brainwave data shows that relaxation is currently dominant. ")
	}
	switch {
	case stressed:
		b.WriteString("Stress levels are elevated, so calming ambient or classical music is recommended to help you settle.")
	case focused:
		b.WriteString("You are deeply engaged. Lo-fi or instrumental beats will help you hold this state.")
	default:
		b.WriteString("You are at ease. Acoustic or jazz tracks would be a pleasant change of pace.")
	}
	return b.String()
}

// MoodFromHistory writes a short mood paragraph from recent analysis runs.
// Returns a fixed message when there is no token or no history.
func (g *Generator) MoodFromHistory(ctx context.Context, history []affect.Scores) string {
	if g.token == "" || len(history) == 0 {
		return "Not enough data to analyze yet. Listen to some music and run an analysis first."
	}

	if len(history) > 10 {
		history = history[:10]
	}
	var lines []string
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- Focus: %.2f, Relax: %.2f, Stress: %.2f", h.Focus, h.Relax, h.Arousal))
	}

	prompt := fmt.Sprintf(`Based on the user's recent brain states below, write a short, empathetic paragraph (2-3 sentences) describing their current emotional state and mood.
Address the user directly.

History:
%s

Output only the paragraph.`, strings.Join(lines, "\n"))

	text, err := g.complete(ctx, "You are an empathetic mental health assistant.", prompt, 0.7, 150)
	if err != nil {
		log.Printf("narrative: mood generation failed: %v", err)
		return "We hit an error while analyzing your current mood."
	}
	return text
}

// GenresFromHistory suggests seed genres matching the user's history.
// Returns a fixed fallback list when there is no token or no history.
func (g *Generator) GenresFromHistory(ctx context.Context, history []affect.Scores) []string {
	fallback := []string{"pop", "k-pop", "indie"}
	if g.token == "" || len(history) == 0 {
		return fallback
	}

	if len(history) > 10 {
		history = history[:10]
	}
	var lines []string
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- State: Focus %.2f, Relax %.2f", h.Focus, h.Relax))
	}

	prompt := fmt.Sprintf(`Based on the user's brain states below, suggest 5 Spotify genre seeds (comma-separated, lowercase, no spaces) that fit their taste.
Available seeds example: pop, rock, indie, classical, jazz, k-pop, hip-hop, chill, study, piano, ambient.

History:
%s

Output only the comma-separated list.`, strings.Join(lines, "\n"))

	text, err := g.complete(ctx, "You are a music recommender system.", prompt, 0.5, 50)
	if err != nil {
		log.Printf("narrative: genre suggestion failed: %v", err)
		return fallback
	}

	var genres []string
	for _, g := range strings.Split(text, ",") {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		return fallback
	}
	return genres
}
