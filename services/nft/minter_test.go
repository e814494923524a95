// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRelay(serverURL string) *RelayClient {
	return &RelayClient{baseURL: serverURL, client: &http.Client{Timeout: 5 * time.Second}}
}

func TestRelayClient_MintSuccess(t *testing.T) {
	var received mintRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mint", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(MintResult{
			Success:         true,
			TokenID:         "7",
			TransactionHash: "0xdeadbeef",
			BlockNumber:     12345,
		})
	}))
	defer server.Close()

	relay := newTestRelay(server.URL)
	result, err := relay.Mint(context.Background(), "0x0566197A3fd2dDcC469c666661C00C4bBc588FAD", "T", "S", "data:image/png;base64,ABC")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "7", result.TokenID)
	assert.Equal(t, "0xdeadbeef", result.TransactionHash)
	assert.Equal(t, int64(12345), result.BlockNumber)
	assert.Equal(t, "T", received.Title)
	assert.Equal(t, "data:image/png;base64,ABC", received.ImageBase64)
}

func TestRelayClient_MintFailureIsResultNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(MintResult{Success: false, Error: "insufficient funds"})
	}))
	defer server.Close()

	relay := newTestRelay(server.URL)
	result, err := relay.Mint(context.Background(), "0x0566197A3fd2dDcC469c666661C00C4bBc588FAD", "T", "S", "")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient funds", result.Error)
}

func TestRelayClient_TokenMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/7/metadata", r.URL.Path)
		json.NewEncoder(w).Encode(TokenMetadata{Success: true, Title: "T", Content: "S", CreatedAt: "1756700000"})
	}))
	defer server.Close()

	relay := newTestRelay(server.URL)
	meta, err := relay.TokenMetadata(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, meta.Success)
	assert.Equal(t, "T", meta.Title)
}

func TestRelayClient_BalanceAndSupply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/balance/0x0566197A3fd2dDcC469c666661C00C4bBc588FAD":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "balance": "3"})
		case "/total-supply":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "totalSupply": "42"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	relay := newTestRelay(server.URL)

	balance, err := relay.Balance(context.Background(), "0x0566197A3fd2dDcC469c666661C00C4bBc588FAD")
	require.NoError(t, err)
	assert.Equal(t, "3", balance)

	supply, err := relay.TotalSupply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", supply)
}

func TestRelayClient_RelayErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "token does not exist"})
	}))
	defer server.Close()

	relay := newTestRelay(server.URL)
	_, err := relay.TokenOwner(context.Background(), 999)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token does not exist")
}
