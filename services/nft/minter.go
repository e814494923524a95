// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package nft talks to the StoryKid minting relay, the opaque collaborator
// that holds the signing key and submits mint transactions to the chain.
// The chain client itself lives behind the relay and is out of scope here.
package nft

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

// MintResult is the relay's verdict on a mint submission. A Success=false
// result is a stage failure for the orchestrator; a Success=true result is
// passed straight into the completion event without reinterpretation.
type MintResult struct {
	Success         bool   `json:"success"`
	TokenID         string `json:"tokenId,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	BlockNumber     int64  `json:"blockNumber,omitempty"`
	Error           string `json:"error,omitempty"`
}

// TokenMetadata is the on-chain record for one minted story.
type TokenMetadata struct {
	Success     bool   `json:"success"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ContractInfo summarizes the deployed collection.
type ContractInfo struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	TotalSupply     string `json:"totalSupply"`
	ContractAddress string `json:"contractAddress"`
}

// Minter is the mint handoff capability consumed by the orchestrator.
type Minter interface {
	Mint(ctx context.Context, to, title, content, imageBase64 string) (*MintResult, error)
}

// RelayClient implements Minter and the token read operations over the
// relay's HTTP API.
type RelayClient struct {
	baseURL string
	client  *http.Client
}

// NewRelayClient builds a client from MINT_RELAY_URL.
func NewRelayClient() (*RelayClient, error) {
	baseURL := os.Getenv("MINT_RELAY_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("MINT_RELAY_URL environment variable not set")
	}
	return &RelayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}, nil
}

type mintRequest struct {
	To          string `json:"to"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImageBase64 string `json:"imageBase64"`
}

// Mint submits the finalized story for minting. Transport errors are
// returned as errors; relay-reported failures come back as a MintResult
// with Success=false so callers can surface the relay's message verbatim.
func (c *RelayClient) Mint(ctx context.Context, to, title, content, imageBase64 string) (*MintResult, error) {
	slog.Info("Submitting mint to relay", "to", to, "title", title)

	var result MintResult
	err := c.post(ctx, "/mint", mintRequest{To: to, Title: title, Content: content, ImageBase64: imageBase64}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		slog.Warn("Relay rejected mint", "to", to, "error", result.Error)
	}
	return &result, nil
}

// TokenMetadata fetches the full on-chain record for a token.
func (c *RelayClient) TokenMetadata(ctx context.Context, tokenID uint64) (*TokenMetadata, error) {
	var meta TokenMetadata
	if err := c.get(ctx, fmt.Sprintf("/tokens/%d/metadata", tokenID), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// TokenOwner returns the current owner address of a token.
func (c *RelayClient) TokenOwner(ctx context.Context, tokenID uint64) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Owner   string `json:"owner"`
		Error   string `json:"error"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tokens/%d/owner", tokenID), &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("relay error: %s", resp.Error)
	}
	return resp.Owner, nil
}

// Balance returns how many story tokens an address holds.
func (c *RelayClient) Balance(ctx context.Context, address string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Balance string `json:"balance"`
		Error   string `json:"error"`
	}
	if err := c.get(ctx, "/balance/"+address, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("relay error: %s", resp.Error)
	}
	return resp.Balance, nil
}

// TotalSupply returns the collection's token count.
func (c *RelayClient) TotalSupply(ctx context.Context) (string, error) {
	var resp struct {
		Success     bool   `json:"success"`
		TotalSupply string `json:"totalSupply"`
		Error       string `json:"error"`
	}
	if err := c.get(ctx, "/total-supply", &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("relay error: %s", resp.Error)
	}
	return resp.TotalSupply, nil
}

// Info returns name, symbol, supply, and address of the collection.
func (c *RelayClient) Info(ctx context.Context) (*ContractInfo, error) {
	var info ContractInfo
	if err := c.get(ctx, "/contract-info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RelayClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal relay request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *RelayClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	return c.do(req, out)
}

func (c *RelayClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read relay response: %w", err)
	}
	// The relay encodes business failures in the body, not the status code,
	// so any parseable body is decoded regardless of status.
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode relay response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
