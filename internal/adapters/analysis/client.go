// Package analysis provides an HTTP adapter for the external audio-analysis
// service. The engine never computes audio features; this client fetches the
// precomputed descriptors (BPM, key, energy curve, structure, cue points).
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Client is an HTTP client for the analysis adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.FeatureAnalyzer = (*Client)(nil)

// NewClient constructs an analysis client over an existing HTTP client.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	maxRetries, baseBackoff := getRetryConfig()
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

// NewClientCredentials constructs a client that authenticates with the
// OAuth2 client-credentials flow, the scheme the analysis service expects.
func NewClientCredentials(baseURL, clientID, clientSecret, tokenURL string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 120 * time.Second
	return NewClient(httpClient, baseURL)
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type wireRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type analyzeResponse struct {
	Duration    float64   `json:"duration"`
	BPM         float64   `json:"bpm"`
	Key         string    `json:"key"`
	EnergyCurve []float64 `json:"energy_curve"`
	Structure   struct {
		Intro      *wireRange  `json:"intro"`
		Outro      *wireRange  `json:"outro"`
		Drop       *float64    `json:"drop"`
		Breakdowns []wireRange `json:"breakdowns"`
	} `json:"structure"`
	Mixing struct {
		CuePoints  []float64 `json:"cue_points"`
		MixInStart *float64  `json:"mix_in_start"`
		MixOutEnd  *float64  `json:"mix_out_end"`
	} `json:"mixing"`
}

// Analyze posts a source to the analysis service and maps the response to a
// domain analysis. A 422 from the service means the source itself could not
// be analyzed and is reported as an AnalysisFailedError.
func (c *Client) Analyze(ctx context.Context, source string) (domain.Analysis, error) {
	body, err := json.Marshal(analyzeRequest{URL: source})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("analysis adapter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("analysis adapter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return domain.Analysis{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return domain.Analysis{}, ports.AnalysisFailedError{Source: source, Reason: "service rejected source"}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Analysis{}, fmt.Errorf("analysis adapter: status %d", resp.StatusCode)
	}

	var wire analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return domain.Analysis{}, fmt.Errorf("analysis adapter: decode response: %w", err)
	}

	return mapToDomain(wire), nil
}

func mapToDomain(wire analyzeResponse) domain.Analysis {
	a := domain.Analysis{
		BPM:             wire.BPM,
		DurationSeconds: wire.Duration,
		HarmonicKey:     wire.Key,
		EnergyCurve:     wire.EnergyCurve,
	}

	st := &domain.Structure{Drop: wire.Structure.Drop}
	if wire.Structure.Intro != nil {
		st.Intro = &domain.TimeRange{Start: wire.Structure.Intro.Start, End: wire.Structure.Intro.End}
	}
	if wire.Structure.Outro != nil {
		st.Outro = &domain.TimeRange{Start: wire.Structure.Outro.Start, End: wire.Structure.Outro.End}
	}
	for _, b := range wire.Structure.Breakdowns {
		st.Breakdowns = append(st.Breakdowns, domain.TimeRange{Start: b.Start, End: b.End})
	}
	if st.Intro != nil || st.Outro != nil || st.Drop != nil || len(st.Breakdowns) > 0 {
		a.Structure = st
	}

	if wire.Mixing.MixInStart != nil || wire.Mixing.MixOutEnd != nil {
		a.Cues = &domain.CuePoints{
			MixIn:  wire.Mixing.MixInStart,
			MixOut: wire.Mixing.MixOutEnd,
		}
	}

	return a
}
