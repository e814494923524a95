// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storykidnft/storykid-backend/pkg/validation"
	"github.com/storykidnft/storykid-backend/services/nft"
	"github.com/storykidnft/storykid-backend/services/story/datatypes"
)

// MintRequest is a direct mint of prepared content, bypassing generation.
type MintRequest struct {
	To          string `json:"to" binding:"required,eth_addr"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	ImageBase64 string `json:"imageBase64"`
}

// MintToken submits already-prepared story content straight to the relay.
// The generation pipelines use the orchestrator instead; this endpoint
// exists for re-mints and administrative tooling.
func MintToken(minter nft.Minter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Error: "Invalid payload: " + bindingErrorMessage(err),
			})
			return
		}

		result, err := minter.Mint(c.Request.Context(), req.To, req.Title, req.Content, req.ImageBase64)
		if err != nil {
			slog.Error("mint submission failed", "to", req.To, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "mint submission failed"})
			return
		}
		if !result.Success {
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: result.Error})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": result})
	}
}

// Relay is the full relay surface the route table wires up.
type Relay interface {
	nft.Minter
	TokenReader
}

// TokenReader is the read slice of the mint relay exposed over HTTP.
type TokenReader interface {
	TokenMetadata(ctx context.Context, tokenID uint64) (*nft.TokenMetadata, error)
	TokenOwner(ctx context.Context, tokenID uint64) (string, error)
	Balance(ctx context.Context, address string) (string, error)
	TotalSupply(ctx context.Context) (string, error)
	Info(ctx context.Context) (*nft.ContractInfo, error)
}

// GetTokenMetadata returns the on-chain record for one minted story.
func GetTokenMetadata(relay TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID, err := validation.ValidateTokenID(c.Param("tokenId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		meta, err := relay.TokenMetadata(c.Request.Context(), tokenID)
		if err != nil {
			slog.Error("failed to fetch token metadata", "tokenId", tokenID, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to fetch token metadata"})
			return
		}
		if !meta.Success {
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: meta.Error})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": meta})
	}
}

// GetTokenOwner returns the current owner address of a token.
func GetTokenOwner(relay TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID, err := validation.ValidateTokenID(c.Param("tokenId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		owner, err := relay.TokenOwner(c.Request.Context(), tokenID)
		if err != nil {
			slog.Error("failed to fetch token owner", "tokenId", tokenID, "error", err)
			c.JSON(http.StatusNotFound, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "owner": owner})
	}
}

// GetBalance returns how many story tokens an address holds.
func GetBalance(relay TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if err := validation.ValidateAddress(address); err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		balance, err := relay.Balance(c.Request.Context(), address)
		if err != nil {
			slog.Error("failed to fetch balance", "address", address, "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to fetch balance"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance})
	}
}

// GetTotalSupply returns the collection's token count.
func GetTotalSupply(relay TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		supply, err := relay.TotalSupply(c.Request.Context())
		if err != nil {
			slog.Error("failed to fetch total supply", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to fetch total supply"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "totalSupply": supply})
	}
}

// GetContractInfo returns name, symbol, supply, and address of the
// collection contract.
func GetContractInfo(relay TokenReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := relay.Info(c.Request.Context())
		if err != nil {
			slog.Error("failed to fetch contract info", "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "failed to fetch contract info"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": info})
	}
}
