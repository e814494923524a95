// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestration

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/storykidnft/storykid-backend/services/generation"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

// DefaultChoice is sent to the generator when the child made no pick.
const DefaultChoice = "no child choice, continue"

// ContinueStoryInput continues a loaded story. The caller resolves the story
// (and 404s) before orchestration, so a missing story never emits progress
// events.
type ContinueStoryInput struct {
	Story     *store.Story
	Choice    string
	ChildName string
}

// ContinueStory runs the continuation pipeline: build the prompt context
// from the story description plus every prior part in creation order,
// generate the next part, generate its image and narration concurrently,
// and persist it. The story id is the progress process id.
func (o *Orchestrator) ContinueStory(ctx context.Context, input ContinueStoryInput) (*store.StoryPart, error) {
	tracker := o.progress.CreateTracker(input.Story.ID, "storyPart")
	tracker.Update(statusPartGenerating, 0, nil)
	tracker.Update(statusPartPreparing, 10, nil)

	parts, err := o.store.ListStoryParts(input.Story.ID)
	if err != nil {
		stageErr := &PersistenceError{Err: err}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}

	choice := input.Choice
	if choice == "" {
		choice = DefaultChoice
	}
	childName := input.ChildName
	if childName == "" {
		childName = input.Story.ChildName
	}

	draft, err := o.stories.GenerateStoryPart(ctx, generation.StoryPartPrompt{
		ChildName:       childName,
		ExistingContent: buildContext(input.Story.Description, parts),
		Choice:          choice,
		Language:        input.Story.Language,
	})
	if err != nil {
		stageErr := &GenerationError{Err: err}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}

	tracker.Update(statusPartAssets, 40, nil)
	image, audio := o.generateAssets(ctx, draft)

	tracker.Update(statusPartSaving, 90, nil)
	part := &store.StoryPart{
		StoryID: input.Story.ID,
		Content: draft.Content,
		Image:   image,
		Audio:   audio,
		Choice:  choice,
	}
	if err := o.store.CreateStoryPart(part); err != nil {
		stageErr := &PersistenceError{Err: err}
		tracker.Error(stageErr.Error(), nil)
		return nil, stageErr
	}

	tracker.Complete(part, nil)

	slog.Info("Story part created", "storyId", input.Story.ID, "partId", part.ID)
	return part, nil
}

// generateAssets runs image and narration concurrently. Both degrade to ""
// on failure, so the group never returns an error; it only bounds the wait.
func (o *Orchestrator) generateAssets(ctx context.Context, draft *generation.StoryPartDraft) (image, audio string) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		image = o.generateImage(gctx, draft.ImagePrompt)
		return nil
	})
	if o.audio != nil {
		g.Go(func() error {
			narration, err := o.audio.Generate(gctx, draft.Content)
			if err != nil {
				slog.Warn("Audio generation failed, continuing without audio", "error", err)
				return nil
			}
			audio = narration
			return nil
		})
	}

	_ = g.Wait()
	return image, audio
}

// buildContext concatenates the story description with every prior part's
// content in creation order. The ordering is load-bearing: the generator
// continues from the end of this text.
func buildContext(description string, parts []store.StoryPart) string {
	var b strings.Builder
	b.WriteString("Story Description: ")
	b.WriteString(description)
	b.WriteString("\n\n")
	for _, part := range parts {
		b.WriteString("\n\n")
		b.WriteString(part.Content)
	}
	return b.String()
}
