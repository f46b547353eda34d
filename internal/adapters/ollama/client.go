// Package ollama provides an adapter for the Ollama LLM service.
// It implements setlist arrangement by describing the candidate tracks to a
// local Ollama instance and parsing the structured JSON answer into a
// domain ArcPlan.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

const defaultBaseURL = "http://localhost:11434"

const systemPrompt = "You are the Segue Narrative Arc Engine. Given a list of tracks with their audio features, order them into a DJ set with a deliberate narrative arc (opener, buildup, peak, cooldown, closer).\n\nRules:\nOrder: Every input track ID appears exactly once in 'order'.\nArc: Pick one arc label summarising the set (e.g. 'warmup opener', 'peak time', 'sunset closer'); honour the requested template when one is given.\nReasoning: Favour gradual BPM and energy progression; place the highest average energy at the peak.\nOutput: Return ONLY a valid JSON object { \"order\": [...], \"arc_label\": \"...\", \"description\": \"...\" }. No conversational text."

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.Arranger = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// trackSummary is what the model sees per track; raw curves are reduced to
// an average so the prompt stays small.
type trackSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist,omitempty"`
	BPM       float64 `json:"bpm,omitempty"`
	Key       string  `json:"key,omitempty"`
	AvgEnergy float64 `json:"avg_energy,omitempty"`
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) ArrangeSetlist(ctx context.Context, tracks []domain.Track, template string) (domain.ArcPlan, error) {
	summaries := make([]trackSummary, 0, len(tracks))
	for _, t := range tracks {
		summaries = append(summaries, trackSummary{
			ID:        t.ID,
			Title:     t.Title,
			Artist:    t.Artist,
			BPM:       t.BPM,
			Key:       t.HarmonicKey,
			AvgEnergy: avgEnergy(t.EnergyCurve),
		})
	}

	userMsg, err := json.Marshal(map[string]any{
		"tracks":       summaries,
		"arc_template": template,
	})
	if err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: marshal tracks: %w", err)
	}

	payload := chatRequest{
		Model:  "deepseek-r1:8b",
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userMsg)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ArcPlan{}, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return domain.ArcPlan{}, fmt.Errorf("ollama: %s", parsed.Error)
	}

	if strings.TrimSpace(parsed.Message.Content) == "" {
		return domain.ArcPlan{}, fmt.Errorf("ollama: empty response")
	}

	var plan domain.ArcPlan
	if err := json.Unmarshal([]byte(parsed.Message.Content), &plan); err != nil {
		return domain.ArcPlan{}, fmt.Errorf("ollama: decode arc plan: %w", err)
	}
	if len(plan.Order) == 0 {
		return domain.ArcPlan{}, fmt.Errorf("ollama: arc plan has no ordering")
	}

	return plan, nil
}

func avgEnergy(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	var sum float64
	for _, v := range curve {
		sum += v
	}
	return sum / float64(len(curve))
}
