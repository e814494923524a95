// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRequest_AppliesGenerationParams(t *testing.T) {
	topP := float32(0.9)
	maxTokens := 512
	g := &OpenAIStoryGenerator{
		model: "gpt-4o-mini",
		params: GenerationParams{
			TopP:      &topP,
			MaxTokens: &maxTokens,
			Stop:      []string{"THE END"},
		},
	}

	req := g.buildRequest("prompt")

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, float32(0.9), req.TopP)
	assert.Equal(t, 512, req.MaxTokens)
	assert.Equal(t, []string{"THE END"}, req.Stop)
	// Unset fields stay at the backend's defaults.
	assert.Zero(t, req.Temperature)
}

func TestBuildRequest_DefaultTemperature(t *testing.T) {
	temperature := float32(storyTemperature)
	g := &OpenAIStoryGenerator{
		model:  "gpt-4o-mini",
		params: GenerationParams{Temperature: &temperature},
	}

	req := g.buildRequest("prompt")

	assert.InDelta(t, 0.8, req.Temperature, 0.001)
	assert.Zero(t, req.MaxTokens)
	assert.Empty(t, req.Stop)
}

func TestBuildStoryPrompt_LanguageDirectives(t *testing.T) {
	prompt := buildStoryPrompt(StoryPrompt{
		StoryInfo: "A dragon who learns to share, for Mia, age 6",
		Language:  "tr",
	})

	assert.Contains(t, prompt, "A dragon who learns to share")
	assert.Contains(t, prompt, "Provide the response in tr language")
	assert.Contains(t, prompt, "DO NOT USE ANY OTHER LANGUAGE")
	// The image prompt stays English no matter the target language.
	assert.Contains(t, prompt, "imagePrompt field must be in English")
	assert.Contains(t, prompt, "Style Guide:")
}

func TestBuildStoryPrompt_RequestsExpectedShape(t *testing.T) {
	prompt := buildStoryPrompt(StoryPrompt{StoryInfo: "x", Language: "en"})

	assert.Contains(t, prompt, `"title"`)
	assert.Contains(t, prompt, `"summary"`)
	assert.Contains(t, prompt, `"content"`)
	assert.Contains(t, prompt, `"imagePrompt"`)
}

func TestBuildStoryPartPrompt_CarriesContextAndChoice(t *testing.T) {
	prompt := buildStoryPartPrompt(StoryPartPrompt{
		ChildName:       "Mia",
		ExistingContent: "Story Description: The forest.\n\nPart one text.",
		Choice:          "follow the fox",
		Language:        "en",
	})

	assert.Contains(t, prompt, "Mia")
	assert.Contains(t, prompt, "Part one text.")
	assert.Contains(t, prompt, "follow the fox")
	assert.Contains(t, prompt, "two options")
	assert.Contains(t, prompt, "imagePrompt field must be in English")
}

func TestBuildStoryPartPrompt_DefaultChoicePassesThrough(t *testing.T) {
	prompt := buildStoryPartPrompt(StoryPartPrompt{
		ChildName:       "Mia",
		ExistingContent: "context",
		Choice:          "no child choice, continue",
		Language:        "en",
	})

	assert.Contains(t, prompt, "no child choice, continue")
}
