package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conceptbridge/transcription-api/internal/config"
)

// TranscriptionEngine defines the contract with the speech-to-text engine.
type TranscriptionEngine interface {
	Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error)
	IsConfigured() bool
}

// WhisperClient implements TranscriptionEngine against the whisper sidecar.
// The sidecar shares the host filesystem, so artifacts are addressed by path.
type WhisperClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// TranscribeRequest is the engine input: an artifact path plus options.
type TranscribeRequest struct {
	FilePath       string `json:"file_path"`
	Language       string `json:"language"`
	Task           string `json:"task"`
	WordTimestamps bool   `json:"word_timestamps"`
}

// SegmentPayload mirrors one timed segment in the engine output.
type SegmentPayload struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscribeResponse is the engine output.
type TranscribeResponse struct {
	Text     string           `json:"text"`
	Segments []SegmentPayload `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

// NewWhisperClient creates a new engine client.
func NewWhisperClient(cfg *config.EngineConfig) *WhisperClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &WhisperClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// IsConfigured reports whether an engine URL was provided. Without one the
// worker falls back to mock transcription.
func (c *WhisperClient) IsConfigured() bool {
	return c.baseURL != ""
}

// Transcribe runs the artifact through the engine. This is the long call of
// a job's lifetime; the passed context bounds it.
func (c *WhisperClient) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result TranscribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// HealthCheck pings the engine's health endpoint.
func (c *WhisperClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}
