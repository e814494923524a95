// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestration runs the multi-stage story pipelines: text
// generation, asset generation, mint handoff, and persistence, broadcasting
// progress at each stage boundary. The HTTP response built from the returned
// outcome is the authoritative result; progress events are advisory.
package orchestration

import (
	"context"
	"log/slog"
	"strings"

	"github.com/storykidnft/storykid-backend/pkg/validation"
	"github.com/storykidnft/storykid-backend/services/generation"
	"github.com/storykidnft/storykid-backend/services/nft"
	"github.com/storykidnft/storykid-backend/services/progress"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

// Story orchestration milestones. Progress within one tracker is
// non-decreasing; completion is signalled on the ":complete" sub-channel
// rather than by a 100 value.
const (
	statusStoryStarting  = "story.progress.starting"
	statusStoryPreparing = "story.progress.preparing"
	statusStoryThumbnail = "story.progress.generatingThumbnail"
	statusStoryMinting   = "story.progress.minting"

	statusPartGenerating = "story.part.progress.generating"
	statusPartPreparing  = "story.part.progress.preparing"
	statusPartAssets     = "story.part.progress.generatingImageAudio"
	statusPartSaving     = "story.part.progress.saving"
)

// StoryStore is the slice of the persistence layer the orchestrator needs.
type StoryStore interface {
	CreateStory(story *store.Story) error
	GetStory(id string) (*store.Story, error)
	ListStoryParts(storyID string) ([]store.StoryPart, error)
	CreateStoryPart(part *store.StoryPart) error
}

// Orchestrator coordinates the generation pipelines. All collaborators are
// injected at construction; it holds no global state and is safe for
// concurrent use.
type Orchestrator struct {
	stories  generation.StoryGenerator
	images   generation.ImageGenerator
	audio    generation.AudioGenerator
	minter   nft.Minter
	store    StoryStore
	progress *progress.Service
}

// New builds an Orchestrator. audio may be nil when narration is not
// configured; the continuation pipeline then skips the audio stage.
func New(
	stories generation.StoryGenerator,
	images generation.ImageGenerator,
	audio generation.AudioGenerator,
	minter nft.Minter,
	storyStore StoryStore,
	progressService *progress.Service,
) *Orchestrator {
	return &Orchestrator{
		stories:  stories,
		images:   images,
		audio:    audio,
		minter:   minter,
		store:    storyStore,
		progress: progressService,
	}
}

// CreateStoryInput is a story request. The handler's binding layer rejects
// malformed payloads first; the orchestrator re-checks so a caller wired
// without that layer still cannot reach the generators or emit progress
// events with bad input.
type CreateStoryInput struct {
	StoryInfo string
	To        string
	Language  string
}

func (input CreateStoryInput) validate() error {
	if strings.TrimSpace(input.StoryInfo) == "" {
		return &ValidationError{Message: "storyInfo is required"}
	}
	if err := validation.ValidateAddress(input.To); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// StoryOutcome is the authoritative result of a story orchestration.
type StoryOutcome struct {
	Story *store.Story
	Mint  *nft.MintResult
}

// CreateStory runs the full pipeline for a new story: generate the text,
// generate the thumbnail, mint to the recipient, persist the record.
//
// The recipient address is the progress process id, so a client that knows
// the address it submitted can subscribe to progress:story:<to> before the
// request. Invalid input fails before any event is published. Once the
// pipeline starts, exactly one terminal event follows: an error event on
// the first stage failure, or a completion event carrying the mint receipt.
func (o *Orchestrator) CreateStory(ctx context.Context, input CreateStoryInput) (*StoryOutcome, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tracker := o.progress.CreateTracker(input.To, "story")
	tracker.Update(statusStoryStarting, 0, nil)
	tracker.Update(statusStoryPreparing, 10, nil)

	draft, err := o.stories.GenerateStory(ctx, generation.StoryPrompt{
		StoryInfo: input.StoryInfo,
		Language:  input.Language,
	})
	if err != nil {
		stageErr := &GenerationError{Err: err}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}

	tracker.Update(statusStoryThumbnail, 40, nil)
	image := o.generateImage(ctx, draft.ImagePrompt)

	tracker.Update(statusStoryMinting, 80, nil)
	mint, err := o.minter.Mint(ctx, input.To, draft.Title, draft.Content, image)
	if err != nil {
		stageErr := &MintError{Message: err.Error()}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}
	if !mint.Success {
		stageErr := &MintError{Message: mint.Error}
		tracker.Error(mint.Error, nil)
		return nil, stageErr
	}

	story := &store.Story{
		Title:           draft.Title,
		Description:     draft.Summary,
		Content:         draft.Content,
		Image:           image,
		Language:        input.Language,
		OwnerAddress:    input.To,
		TokenID:         mint.TokenID,
		TransactionHash: mint.TransactionHash,
	}
	if err := o.store.CreateStory(story); err != nil {
		stageErr := &PersistenceError{Err: err}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}

	tracker.Complete(map[string]any{
		"tokenId":         mint.TokenID,
		"transactionHash": mint.TransactionHash,
		"blockNumber":     mint.BlockNumber,
	}, nil)

	slog.Info("Story created and minted",
		"storyId", story.ID, "to", input.To, "tokenId", mint.TokenID)

	return &StoryOutcome{Story: story, Mint: mint}, nil
}

// generateImage degrades every image failure to an empty asset. A missing
// picture is an accepted outcome; it must never fail the pipeline.
func (o *Orchestrator) generateImage(ctx context.Context, prompt string) string {
	image, err := o.images.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Image generation failed, continuing without image", "error", err)
		return ""
	}
	return image
}
