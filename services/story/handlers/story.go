// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/storykidnft/storykid-backend/services/story/datatypes"
	"github.com/storykidnft/storykid-backend/services/story/orchestration"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

// StoryReader is the read slice of the store the GET handlers need.
type StoryReader interface {
	GetStory(id string) (*store.Story, error)
	ListStories() ([]store.Story, error)
}

// CreateStory handles the agent payload that creates and mints a new story.
// Binding failures return 400 before the orchestrator runs, so a rejected
// request never produces progress events.
func CreateStory(orch *orchestration.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateStoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error: "Invalid payload: " + bindingErrorMessage(err),
			})
			return
		}
		if req.Language == "" {
			req.Language = "en"
		}

		slog.Info("Received story creation request", "to", req.To, "language", req.Language)

		outcome, err := orch.CreateStory(c.Request.Context(), orchestration.CreateStoryInput{
			StoryInfo: req.StoryInfo,
			To:        req.To,
			Language:  req.Language,
		})
		if err != nil {
			writeStageError(c, err)
			return
		}

		c.JSON(http.StatusCreated, datatypes.CreateStoryResponse{
			Success: true,
			Message: "Story created and minted as NFT successfully",
			Data: datatypes.CreateStoryData{
				Story: datatypes.StoryResult{
					Title:   outcome.Story.Title,
					Content: outcome.Story.Content,
					Image:   outcome.Story.Image,
				},
				NFT: datatypes.NFTResult{
					TokenID:         outcome.Mint.TokenID,
					TransactionHash: outcome.Mint.TransactionHash,
					BlockNumber:     outcome.Mint.BlockNumber,
					Owner:           req.To,
				},
			},
		})
	}
}

// GetStories lists all persisted stories.
func GetStories(stories StoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := stories.ListStories()
		if err != nil {
			slog.Error("failed to list stories", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to list stories"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(list),
			"data":    list,
		})
	}
}

// GetStory fetches a single story by id.
func GetStory(stories StoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		story, err := stories.GetStory(c.Param("storyId"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error: "No story with the id of " + c.Param("storyId"),
			})
			return
		}
		if err != nil {
			slog.Error("failed to get story", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to get story"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": story})
	}
}

// bindingErrorMessage flattens field validation failures into one
// comma-joined message. Non-validation binding errors pass through as-is.
func bindingErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "eth_addr":
			msgs = append(msgs, "invalid Ethereum address format")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

// writeStageError maps orchestration stage errors onto HTTP statuses.
// The progress channel already carried the error event; this body is the
// authoritative failure report.
func writeStageError(c *gin.Context, err error) {
	var validationErr *orchestration.ValidationError
	status := http.StatusInternalServerError
	if errors.As(err, &validationErr) {
		status = http.StatusBadRequest
	}
	slog.Error("orchestration failed", "error", err)
	c.JSON(status, datatypes.ErrorResponse{Error: err.Error()})
}
