// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/storykidnft/storykid-backend/services/progress"
	"github.com/storykidnft/storykid-backend/services/story/handlers"
	"github.com/storykidnft/storykid-backend/services/story/orchestration"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

func SetupRoutes(router *gin.Engine, orch *orchestration.Orchestrator, db *store.Store,
	relay handlers.Relay, hub *progress.Hub) {

	router.GET("/health", handlers.HealthCheck)

	// API version 1 group
	v1 := router.Group("/v1")
	{
		stories := v1.Group("/stories")
		{
			stories.POST("", handlers.CreateStory(orch))
			stories.GET("", handlers.GetStories(db))
			stories.GET("/:storyId", handlers.GetStory(db))
			stories.POST("/:storyId/parts", handlers.CreateStoryPart(orch, db))
			stories.GET("/:storyId/parts", handlers.GetStoryParts(db))
		}
		storyParts := v1.Group("/storyparts")
		{
			storyParts.GET("/:id", handlers.GetStoryPart(db))
			storyParts.PUT("/:id", handlers.UpdateStoryPart(db))
			storyParts.DELETE("/:id", handlers.DeleteStoryPart(db))
		}
		// Mint relay passthrough and read-only token views
		nftGroup := v1.Group("/nft")
		{
			nftGroup.POST("/mint", handlers.MintToken(relay))
			nftGroup.GET("/tokens/:tokenId/metadata", handlers.GetTokenMetadata(relay))
			nftGroup.GET("/tokens/:tokenId/owner", handlers.GetTokenOwner(relay))
			nftGroup.GET("/balance/:address", handlers.GetBalance(relay))
			nftGroup.GET("/total-supply", handlers.GetTotalSupply(relay))
			nftGroup.GET("/contract-info", handlers.GetContractInfo(relay))
		}
		// Progress event stream
		v1.GET("/progress/ws", hub.HandleWebSocket())
	}
}
