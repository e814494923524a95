// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// storyTemperature matches the creative setting the product was tuned with.
const storyTemperature = 0.8

// imageStyleGuide pins every generated illustration to one visual identity.
// The image generator has no notion of a house style, so the constraint
// lives in the text prompt and the model bakes it into each image prompt.
const imageStyleGuide = `Style Guide:
- 3D-rendered but stylized like Pixar or DreamWorks animation.
- Use soft lighting, dreamy atmosphere, and warm pastel tones.
- Key palette: Warm Yellow (#FFD166), Soft Pink (#FFAFCC), Playful Red (#EF476F), Gentle Green (#06D6A0), Calm Blue (#118AB2), Creamy White (#FFFBF0).
- Environment filled with depth using blurred background, floating particles, and rim light.
- Character posture: sitting, reading, riding a creature, or smiling with wonder.
- Background should feel immersive: twilight forest, magical night sky, sunset with fantasy creatures.
- Add emotional warmth, charm, innocence, and imagination.
- High-resolution, cinematic framing, slight vignette for focus.

Do NOT use realistic human textures or harsh shadows. Keep everything soft, rounded, glowing, and child-friendly.`

// OpenAIStoryGenerator implements StoryGenerator against the OpenAI chat
// completions API with JSON-object response format.
type OpenAIStoryGenerator struct {
	client *openai.Client
	model  string
	params GenerationParams
}

// NewOpenAIStoryGenerator builds a generator from the environment:
// OPENAI_API_KEY (required, falls back to the container secret file),
// OPENAI_MODEL (default gpt-4o-mini), and OPENAI_MAX_TOKENS (optional
// completion cap). Temperature defaults to the tuned creative setting.
func NewOpenAIStoryGenerator() (*OpenAIStoryGenerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from container secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	temperature := float32(storyTemperature)
	params := GenerationParams{Temperature: &temperature}
	if raw := os.Getenv("OPENAI_MAX_TOKENS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			params.MaxTokens = &n
		} else {
			slog.Warn("Ignoring invalid OPENAI_MAX_TOKENS", "value", raw)
		}
	}

	slog.Info("Initializing OpenAI story generator", "model", model)
	return &OpenAIStoryGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		params: params,
	}, nil
}

// GenerateStory implements StoryGenerator.
func (g *OpenAIStoryGenerator) GenerateStory(ctx context.Context, prompt StoryPrompt) (*StoryDraft, error) {
	raw, err := g.complete(ctx, buildStoryPrompt(prompt))
	if err != nil {
		return nil, err
	}

	var draft StoryDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		slog.Error("OpenAI returned malformed story JSON", "error", err)
		return nil, fmt.Errorf("malformed story output: %w", err)
	}
	if draft.Title == "" || draft.Content == "" || draft.ImagePrompt == "" {
		return nil, fmt.Errorf("incomplete story output: missing title, content, or image prompt")
	}
	return &draft, nil
}

// GenerateStoryPart implements StoryGenerator.
func (g *OpenAIStoryGenerator) GenerateStoryPart(ctx context.Context, prompt StoryPartPrompt) (*StoryPartDraft, error) {
	raw, err := g.complete(ctx, buildStoryPartPrompt(prompt))
	if err != nil {
		return nil, err
	}

	var draft StoryPartDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		slog.Error("OpenAI returned malformed story part JSON", "error", err)
		return nil, fmt.Errorf("malformed story part output: %w", err)
	}
	if draft.Content == "" || draft.ImagePrompt == "" {
		return nil, fmt.Errorf("incomplete story part output: missing content or image prompt")
	}
	return &draft, nil
}

// buildRequest maps the generator's params onto one completion request.
// Nil fields fall back to the backend's defaults.
func (g *OpenAIStoryGenerator) buildRequest(userPrompt string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a children's story author. Always answer with a single JSON object and nothing else."},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if g.params.Temperature != nil {
		req.Temperature = *g.params.Temperature
	}
	if g.params.TopP != nil {
		req.TopP = *g.params.TopP
	}
	if g.params.MaxTokens != nil {
		req.MaxTokens = *g.params.MaxTokens
	}
	if len(g.params.Stop) > 0 {
		req.Stop = g.params.Stop
	}
	return req
}

func (g *OpenAIStoryGenerator) complete(ctx context.Context, userPrompt string) (string, error) {
	slog.Debug("Generating story text via OpenAI", "model", g.model)

	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(userPrompt))
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// buildStoryPrompt assembles the new-story prompt. The target language is
// the exclusive language of all narrative fields; the image prompt is
// always English because the image generator receives it verbatim.
func buildStoryPrompt(p StoryPrompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an engaging children's story based on this request: %q.\n\n", p.StoryInfo)
	b.WriteString(`The story should be:
- Educational and entertaining
- Appropriate for children
- Contain positive messages and lessons
- Be creative and imaginative

`)
	fmt.Fprintf(&b, "Important: Provide the response in %s language.\n", p.Language)
	fmt.Fprintf(&b, "Important: The story must be in %s language. DO NOT USE ANY OTHER LANGUAGE.\n", p.Language)
	b.WriteString("Important: The image of the story should be in this style:\n")
	b.WriteString(imageStyleGuide)
	b.WriteString("\nImportant: The imagePrompt field must be in English.\n")
	b.WriteString(`
Respond with exactly this JSON shape:
{
  "title": "The Story Title",
  "summary": "A brief summary of the story (2-3 sentences)",
  "content": "The full story text",
  "imagePrompt": "A detailed English description for generating an image that represents the story"
}`)
	return b.String()
}

// buildStoryPartPrompt assembles the continuation prompt from the prior
// content the caller concatenated.
func buildStoryPartPrompt(p StoryPartPrompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The child's name is %s. You need to use the child's name in the story.\n", p.ChildName)
	fmt.Fprintf(&b, "You need to continue the story from the last part based on the choice of child: %s.\n", p.Choice)
	b.WriteString("You need to give two options which are related to the story to the child to choose from at the end of the story part.\n\n")
	b.WriteString("Continue this children's story:\n\n")
	fmt.Fprintf(&b, "%q\n\n", p.ExistingContent)
	b.WriteString(`Write the next part of the story that:
- Continues the narrative naturally
- Develops the characters and plot
- Maintains the same tone and style
- Ends at an interesting point that invites continuation

`)
	fmt.Fprintf(&b, "Important: Provide the response in %s language.\n", p.Language)
	fmt.Fprintf(&b, "Important: The story must be in %s language. DO NOT USE ANY OTHER LANGUAGE.\n", p.Language)
	b.WriteString("Important: The image of the story part should be in this style:\n")
	b.WriteString(imageStyleGuide)
	b.WriteString("\nImportant: The imagePrompt field must be in English.\n")
	b.WriteString(`
Respond with exactly this JSON shape:
{
  "content": "The next part of the story (1-2 paragraphs)",
  "imagePrompt": "A detailed English description for generating an image that represents this part of the story"
}`)
	return b.String()
}
