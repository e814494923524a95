// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storykidnft/storykid-backend/services/story/datatypes"
	"github.com/storykidnft/storykid-backend/services/story/orchestration"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

// PartStore is the slice of the store the part CRUD handlers need.
type PartStore interface {
	GetStory(id string) (*store.Story, error)
	ListStoryParts(storyID string) ([]store.StoryPart, error)
	GetStoryPart(id string) (*store.StoryPart, error)
	UpdateStoryPart(part *store.StoryPart) error
	DeleteStoryPart(id string) error
}

// CreateStoryPart continues a story. The parent story is resolved before
// the orchestrator runs, so a 404 never produces progress events. An empty
// request body is valid and means "continue without a choice".
func CreateStoryPart(orch *orchestration.Orchestrator, parts PartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		storyID := c.Param("storyId")
		story, err := parts.GetStory(storyID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error: "No story with the id of " + storyID,
			})
			return
		}
		if err != nil {
			slog.Error("failed to load story", "storyId", storyID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to load story"})
			return
		}

		var req datatypes.CreateStoryPartRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error: "Invalid payload: " + bindingErrorMessage(err),
			})
			return
		}

		part, err := orch.ContinueStory(c.Request.Context(), orchestration.ContinueStoryInput{
			Story:     story,
			Choice:    req.Choice,
			ChildName: req.ChildName,
		})
		if err != nil {
			writeStageError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": part})
	}
}

// GetStoryParts lists a story's parts in creation order.
func GetStoryParts(parts PartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		storyID := c.Param("storyId")
		if _, err := parts.GetStory(storyID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
					Error: "No story with the id of " + storyID,
				})
				return
			}
			slog.Error("failed to load story", "storyId", storyID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to load story"})
			return
		}

		list, err := parts.ListStoryParts(storyID)
		if err != nil {
			slog.Error("failed to list story parts", "storyId", storyID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to list story parts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(list),
			"data":    list,
		})
	}
}

// GetStoryPart fetches a single part by id.
func GetStoryPart(parts PartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		part, err := parts.GetStoryPart(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error: "No story part with the id of " + c.Param("id"),
			})
			return
		}
		if err != nil {
			slog.Error("failed to get story part", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to get story part"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": part})
	}
}

// UpdateStoryPart overwrites the fields present in the request body.
func UpdateStoryPart(parts PartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		part, err := parts.GetStoryPart(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error: "No story part with the id of " + c.Param("id"),
			})
			return
		}
		if err != nil {
			slog.Error("failed to get story part", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to get story part"})
			return
		}

		var req datatypes.UpdateStoryPartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error: "Invalid payload: " + bindingErrorMessage(err),
			})
			return
		}
		if req.Content != nil {
			part.Content = *req.Content
		}
		if req.Image != nil {
			part.Image = *req.Image
		}
		if req.Audio != nil {
			part.Audio = *req.Audio
		}
		if req.Choice != nil {
			part.Choice = *req.Choice
		}

		if err := parts.UpdateStoryPart(part); err != nil {
			slog.Error("failed to update story part", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to update story part"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": part})
	}
}

// DeleteStoryPart removes a part.
func DeleteStoryPart(parts PartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := parts.DeleteStoryPart(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{
				Error: "No story part with the id of " + c.Param("id"),
			})
			return
		}
		if err != nil {
			slog.Error("failed to delete story part", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to delete story part"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}
