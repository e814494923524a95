// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the request and response shapes of the story API.
package datatypes

// CreateStoryRequest is the agent payload that kicks off a full story
// generation and mint. The `to` address doubles as the progress process id,
// so a client can subscribe to progress:story:<to> before sending this.
type CreateStoryRequest struct {
	StoryInfo string `json:"storyInfo" binding:"required"`
	To        string `json:"to" binding:"required,eth_addr"`
	Language  string `json:"language"`
}

// CreateStoryPartRequest continues an existing story. Choice is the child's
// pick from the previous part's options; empty means "continue as you see
// fit". The story id in the URL doubles as the progress process id.
type CreateStoryPartRequest struct {
	Choice    string `json:"choice"`
	ChildName string `json:"childName"`
}

// UpdateStoryPartRequest overwrites the editable fields of a saved part.
// Nil fields are left untouched.
type UpdateStoryPartRequest struct {
	Content *string `json:"content"`
	Image   *string `json:"image"`
	Audio   *string `json:"audio"`
	Choice  *string `json:"choice"`
}

// StoryResult is the finalized story in API responses.
type StoryResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

// NFTResult reports the mint outcome alongside the story.
type NFTResult struct {
	TokenID         string `json:"tokenId"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
	Owner           string `json:"owner"`
}

// CreateStoryResponse is the authoritative result of a story orchestration.
// Progress events are advisory; this body is what the client should trust.
type CreateStoryResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    CreateStoryData `json:"data"`
}

// CreateStoryData nests the story and its mint record.
type CreateStoryData struct {
	Story StoryResult `json:"story"`
	NFT   NFTResult   `json:"nft"`
}

// ErrorResponse is the uniform error body for every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
