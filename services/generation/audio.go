// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// HTTPAudioGenerator narrates story text through a text-to-speech provider.
// Same degraded-outcome contract as HTTPImageGenerator: a declined
// generation is ("", nil), not an error.
type HTTPAudioGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type audioRequest struct {
	Text string `json:"text"`
}

type audioResponse struct {
	Status string `json:"status"`
	Audio  string `json:"audio"`
	Error  string `json:"error,omitempty"`
}

// NewHTTPAudioGenerator builds a generator from AUDIO_API_URL and
// AUDIO_API_KEY. Returns (nil, nil) when AUDIO_API_URL is unset: audio
// narration is an optional capability and the orchestrator skips the stage
// when no generator is configured.
func NewHTTPAudioGenerator() (*HTTPAudioGenerator, error) {
	baseURL := os.Getenv("AUDIO_API_URL")
	if baseURL == "" {
		slog.Info("AUDIO_API_URL not set, audio narration disabled")
		return nil, nil
	}
	return &HTTPAudioGenerator{
		baseURL: baseURL,
		apiKey:  os.Getenv("AUDIO_API_KEY"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Generate implements AudioGenerator. The returned asset is an MP3 data URI.
func (g *HTTPAudioGenerator) Generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(audioRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal audio request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/speech", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build audio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read audio response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio provider returned status %d", resp.StatusCode)
	}

	var parsed audioResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode audio response: %w", err)
	}
	if parsed.Status != "ok" {
		slog.Warn("audio provider declined generation", "status", parsed.Status, "error", parsed.Error)
		return "", nil
	}
	return "data:audio/mp3;base64," + parsed.Audio, nil
}
