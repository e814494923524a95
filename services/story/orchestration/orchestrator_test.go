// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storykidnft/storykid-backend/services/generation"
	"github.com/storykidnft/storykid-backend/services/nft"
	"github.com/storykidnft/storykid-backend/services/progress"
	"github.com/storykidnft/storykid-backend/services/story/store"
)

const testAddress = "0x0566197A3fd2dDcC469c666661C00C4bBc588FAD"

// recordedEvent is one broadcast captured by the recording notifier.
type recordedEvent struct {
	Channel string
	Payload map[string]any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Publish(channel string, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Channel: channel, Payload: payload})
	return nil
}

func (n *recordingNotifier) all() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

func (n *recordingNotifier) onChannel(channel string) []recordedEvent {
	var out []recordedEvent
	for _, ev := range n.all() {
		if ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

type stubStoryGenerator struct {
	draft     *generation.StoryDraft
	partDraft *generation.StoryPartDraft
	err       error

	lastStoryPrompt generation.StoryPrompt
	lastPartPrompt  generation.StoryPartPrompt
}

func (g *stubStoryGenerator) GenerateStory(_ context.Context, prompt generation.StoryPrompt) (*generation.StoryDraft, error) {
	g.lastStoryPrompt = prompt
	if g.err != nil {
		return nil, g.err
	}
	return g.draft, nil
}

func (g *stubStoryGenerator) GenerateStoryPart(_ context.Context, prompt generation.StoryPartPrompt) (*generation.StoryPartDraft, error) {
	g.lastPartPrompt = prompt
	if g.err != nil {
		return nil, g.err
	}
	return g.partDraft, nil
}

type stubImageGenerator struct {
	asset string
	err   error
	calls int
}

func (g *stubImageGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return g.asset, g.err
}

type stubAudioGenerator struct {
	asset string
	err   error
}

func (g *stubAudioGenerator) Generate(context.Context, string) (string, error) {
	return g.asset, g.err
}

type stubMinter struct {
	result *nft.MintResult
	err    error
	calls  int
}

func (m *stubMinter) Mint(context.Context, string, string, string, string) (*nft.MintResult, error) {
	m.calls++
	return m.result, m.err
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	*store.Store
	failCreateStory bool
	failCreatePart  bool
}

func (s *failingStore) CreateStory(story *store.Story) error {
	if s.failCreateStory {
		return errors.New("disk full")
	}
	return s.Store.CreateStory(story)
}

func (s *failingStore) CreateStoryPart(part *store.StoryPart) error {
	if s.failCreatePart {
		return errors.New("disk full")
	}
	return s.Store.CreateStoryPart(part)
}

type fixture struct {
	orch     *Orchestrator
	notifier *recordingNotifier
	stories  *stubStoryGenerator
	images   *stubImageGenerator
	audio    *stubAudioGenerator
	minter   *stubMinter
	store    *failingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		notifier: &recordingNotifier{},
		stories: &stubStoryGenerator{
			draft: &generation.StoryDraft{
				Title:       "The Brave Fox",
				Summary:     "A fox learns courage",
				Content:     "Once upon a time...",
				ImagePrompt: "a fox in a twilight forest",
			},
			partDraft: &generation.StoryPartDraft{
				Content:     "The fox stepped forward.",
				ImagePrompt: "a fox at a river crossing",
			},
		},
		images: &stubImageGenerator{asset: "data:image/png;base64,IMG"},
		audio:  &stubAudioGenerator{asset: "data:audio/mp3;base64,AUD"},
		minter: &stubMinter{result: &nft.MintResult{
			Success:         true,
			TokenID:         "7",
			TransactionHash: "0xdeadbeef",
			BlockNumber:     12345,
		}},
		store: &failingStore{Store: db},
	}
	f.orch = New(f.stories, f.images, f.audio, f.minter, f.store, progress.NewService(f.notifier))
	return f
}

func storyInput() CreateStoryInput {
	return CreateStoryInput{StoryInfo: "A dragon who learns to share", To: testAddress, Language: "en"}
}

func TestCreateStory_FullPipeline(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.orch.CreateStory(context.Background(), storyInput())
	require.NoError(t, err)

	assert.Equal(t, "The Brave Fox", outcome.Story.Title)
	assert.Equal(t, "data:image/png;base64,IMG", outcome.Story.Image)
	assert.Equal(t, "7", outcome.Mint.TokenID)

	// Finalized record carries the generated asset, never the prompt text.
	assert.NotContains(t, outcome.Story.Image, "twilight forest")

	saved, err := f.store.GetStory(outcome.Story.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", saved.TokenID)
	assert.Equal(t, testAddress, saved.OwnerAddress)
}

func TestCreateStory_ProgressSequence(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.CreateStory(context.Background(), storyInput())
	require.NoError(t, err)

	base := "progress:story:" + testAddress
	updates := f.notifier.onChannel(base)
	require.Len(t, updates, 4)

	wantStatus := []string{
		"story.progress.starting",
		"story.progress.preparing",
		"story.progress.generatingThumbnail",
		"story.progress.minting",
	}
	wantProgress := []int{0, 10, 40, 80}
	last := -1
	for i, ev := range updates {
		assert.Equal(t, wantStatus[i], ev.Payload["status"])
		got := ev.Payload["progress"].(int)
		assert.Equal(t, wantProgress[i], got)
		assert.GreaterOrEqual(t, got, last, "progress must be non-decreasing")
		last = got
	}

	completes := f.notifier.onChannel(base + ":complete")
	require.Len(t, completes, 1)
	data := completes[0].Payload["data"].(map[string]any)
	assert.Equal(t, "7", data["tokenId"])
	assert.Equal(t, "0xdeadbeef", data["transactionHash"])
	assert.Equal(t, int64(12345), data["blockNumber"])

	assert.Empty(t, f.notifier.onChannel(base+":error"))
}

func TestCreateStory_GenerationFailureSkipsImageStage(t *testing.T) {
	f := newFixture(t)
	f.stories.err = errors.New("rate limited")

	_, err := f.orch.CreateStory(context.Background(), storyInput())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, err.Error(), "rate limited")

	assert.Zero(t, f.images.calls, "image stage must not run after generation failure")
	assert.Zero(t, f.minter.calls)

	base := "progress:story:" + testAddress
	errs := f.notifier.onChannel(base + ":error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Payload["error"], "rate limited")
	assert.Empty(t, f.notifier.onChannel(base+":complete"))
}

func TestCreateStory_ImageFailureDegradesToEmpty(t *testing.T) {
	f := newFixture(t)
	f.images.asset = ""
	f.images.err = errors.New("image backend down")

	outcome, err := f.orch.CreateStory(context.Background(), storyInput())
	require.NoError(t, err)

	assert.Empty(t, outcome.Story.Image)
	assert.Equal(t, 1, f.minter.calls, "mint still runs without an image")

	base := "progress:story:" + testAddress
	assert.Len(t, f.notifier.onChannel(base+":complete"), 1)
	assert.Empty(t, f.notifier.onChannel(base+":error"))
}

func TestCreateStory_MintRejectionIsSingleErrorEvent(t *testing.T) {
	f := newFixture(t)
	f.minter.result = &nft.MintResult{Success: false, Error: "insufficient funds"}

	_, err := f.orch.CreateStory(context.Background(), storyInput())

	var mintErr *MintError
	require.ErrorAs(t, err, &mintErr)
	assert.Contains(t, err.Error(), "insufficient funds")

	base := "progress:story:" + testAddress
	errs := f.notifier.onChannel(base + ":error")
	require.Len(t, errs, 1)
	assert.Equal(t, "insufficient funds", errs[0].Payload["error"])
	assert.Empty(t, f.notifier.onChannel(base+":complete"))

	// Nothing persisted after a mint failure.
	stories, listErr := f.store.ListStories()
	require.NoError(t, listErr)
	assert.Empty(t, stories)
}

func TestCreateStory_MintTransportErrorIsMintError(t *testing.T) {
	f := newFixture(t)
	f.minter.result = nil
	f.minter.err = errors.New("connection refused")

	_, err := f.orch.CreateStory(context.Background(), storyInput())

	var mintErr *MintError
	require.ErrorAs(t, err, &mintErr)

	base := "progress:story:" + testAddress
	assert.Len(t, f.notifier.onChannel(base+":error"), 1)
	assert.Empty(t, f.notifier.onChannel(base+":complete"))
}

func TestCreateStory_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failCreateStory = true

	_, err := f.orch.CreateStory(context.Background(), storyInput())

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)

	base := "progress:story:" + testAddress
	assert.Len(t, f.notifier.onChannel(base+":error"), 1)
	assert.Empty(t, f.notifier.onChannel(base+":complete"))
}

func TestCreateStory_InvalidInputFailsWithoutProgress(t *testing.T) {
	f := newFixture(t)

	badAddress := storyInput()
	badAddress.To = "not-an-address"
	_, err := f.orch.CreateStory(context.Background(), badAddress)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Empty(t, f.notifier.all(), "invalid input must not emit progress events")

	blankInfo := storyInput()
	blankInfo.StoryInfo = "   "
	_, err = f.orch.CreateStory(context.Background(), blankInfo)

	require.ErrorAs(t, err, &valErr)
	assert.Empty(t, f.notifier.all())
}

func TestCreateStory_PromptCarriesInputVerbatim(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.CreateStory(context.Background(), storyInput())
	require.NoError(t, err)

	assert.Equal(t, "A dragon who learns to share", f.stories.lastStoryPrompt.StoryInfo)
	assert.Equal(t, "en", f.stories.lastStoryPrompt.Language)
}

func TestBuildContext_OrderIsDescriptionThenPartsAscending(t *testing.T) {
	ctx := buildContext("The forest.", []store.StoryPart{
		{Content: "first part"},
		{Content: "second part"},
		{Content: "third part"},
	})

	assert.True(t, strings.HasPrefix(ctx, "Story Description: The forest.\n\n"))
	first := strings.Index(ctx, "first part")
	second := strings.Index(ctx, "second part")
	third := strings.Index(ctx, "third part")
	assert.Greater(t, first, 0)
	assert.Greater(t, second, first)
	assert.Greater(t, third, second)
}
