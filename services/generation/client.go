// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generation wraps the external text, image, and audio generators
// behind narrow interfaces so orchestration code can be tested against
// stubs and providers can be swapped via configuration.
package generation

import "context"

// GenerationParams tunes a single text-generation call. Nil fields use the
// backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// StoryPrompt is the context for generating a brand-new story.
type StoryPrompt struct {
	// StoryInfo describes the requested story: theme, child details,
	// anything the agent passed along.
	StoryInfo string

	// Language is the ISO code the story must be written in. The image
	// prompt is always produced in English regardless of this value,
	// because the image generator does not support localization.
	Language string
}

// StoryPartPrompt is the context for continuing an existing story.
type StoryPartPrompt struct {
	// ChildName is woven into the narrative.
	ChildName string

	// ExistingContent is the story description followed by every prior
	// part's content in creation order. Callers own the concatenation;
	// the generator treats it as opaque context.
	ExistingContent string

	// Choice is what the child picked at the end of the previous part,
	// or a default "continue" directive when absent.
	Choice string

	Language string
}

// StoryDraft is the text stage's output for a new story. ImagePrompt is an
// English scene description for the image generator; it never holds the
// generated asset.
type StoryDraft struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
}

// StoryPartDraft is the text stage's output for a continuation.
type StoryPartDraft struct {
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
}

// StoryGenerator produces structured story text from a language model.
// Any provider error or malformed output is a stage failure; there is no
// fallback to cached or default stories.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, prompt StoryPrompt) (*StoryDraft, error)
	GenerateStoryPart(ctx context.Context, prompt StoryPartPrompt) (*StoryPartDraft, error)
}

// ImageGenerator turns an English scene description into an encoded image
// asset (a data URI). A ("", nil) return means the provider declined to
// produce an image; downstream treats that as an acceptable degraded
// outcome, not a failure.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AudioGenerator narrates text into an encoded audio asset under the same
// degraded-outcome policy as ImageGenerator.
type AudioGenerator interface {
	Generate(ctx context.Context, text string) (string, error)
}
