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

// HTTPImageGenerator calls a text-to-image provider over HTTP.
//
// The provider contract: POST {"prompt": "..."} returns
// {"status": "ok", "image": "<base64 png>"} on success. Any non-"ok" status
// is a declined generation, reported as ("", nil) so the orchestrator can
// substitute a placeholder.
type HTTPImageGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	Status string `json:"status"`
	Image  string `json:"image"`
	Error  string `json:"error,omitempty"`
}

// NewHTTPImageGenerator builds a generator from IMAGE_API_URL and
// IMAGE_API_KEY.
func NewHTTPImageGenerator() (*HTTPImageGenerator, error) {
	baseURL := os.Getenv("IMAGE_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("IMAGE_API_URL environment variable not set")
	}
	return &HTTPImageGenerator{
		baseURL: baseURL,
		apiKey:  os.Getenv("IMAGE_API_KEY"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Generate implements ImageGenerator. The returned asset is a PNG data URI.
func (g *HTTPImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(imageRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image provider returned status %d", resp.StatusCode)
	}

	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if parsed.Status != "ok" {
		slog.Warn("image provider declined generation", "status", parsed.Status, "error", parsed.Error)
		return "", nil
	}
	return "data:image/png;base64," + parsed.Image, nil
}
