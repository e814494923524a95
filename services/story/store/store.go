// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists stories and story parts in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a story or part does not exist.
var ErrNotFound = errors.New("not found")

// Story is a persisted story record. TokenID and TransactionHash are set
// when the story was minted.
type Story struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	Image           string    `json:"image"`
	Language        string    `json:"language"`
	ChildName       string    `json:"childName"`
	OwnerAddress    string    `json:"ownerAddress,omitempty"`
	TokenID         string    `json:"tokenId,omitempty"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StoryPart is one continuation of a story. Parts are ordered by CreatedAt;
// that order is the prompt-context order for the next continuation.
type StoryPart struct {
	ID        string    `json:"id"`
	StoryID   string    `json:"storyId"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	Audio     string    `json:"audio,omitempty"`
	Choice    string    `json:"choice,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store wraps the SQLite handle. One Store is shared by all requests; the
// underlying *sql.DB handles pooling.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and ensures the schema.
// Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS stories (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'en',
			child_name TEXT NOT NULL DEFAULT '',
			owner_address TEXT NOT NULL DEFAULT '',
			token_id TEXT NOT NULL DEFAULT '',
			transaction_hash TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS story_parts (
			id TEXT PRIMARY KEY,
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			audio TEXT NOT NULL DEFAULT '',
			choice TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_story_parts_story_created ON story_parts(story_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// CreateStory inserts a story, assigning ID and CreatedAt when unset.
func (s *Store) CreateStory(story *Story) error {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	if story.Language == "" {
		story.Language = "en"
	}

	_, err := s.db.Exec(`
		INSERT INTO stories (id, title, description, content, image, language, child_name, owner_address, token_id, transaction_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID, story.Title, story.Description, story.Content, story.Image,
		story.Language, story.ChildName, story.OwnerAddress, story.TokenID,
		story.TransactionHash, story.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetStory fetches one story by id.
func (s *Store) GetStory(id string) (*Story, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, content, image, language, child_name, owner_address, token_id, transaction_hash, created_at
		FROM stories WHERE id = ?`, id)

	var story Story
	err := row.Scan(&story.ID, &story.Title, &story.Description, &story.Content,
		&story.Image, &story.Language, &story.ChildName, &story.OwnerAddress,
		&story.TokenID, &story.TransactionHash, &story.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &story, nil
}

// ListStories returns all stories, newest first.
func (s *Store) ListStories() ([]Story, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, content, image, language, child_name, owner_address, token_id, transaction_hash, created_at
		FROM stories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		var story Story
		if err := rows.Scan(&story.ID, &story.Title, &story.Description, &story.Content,
			&story.Image, &story.Language, &story.ChildName, &story.OwnerAddress,
			&story.TokenID, &story.TransactionHash, &story.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// CreateStoryPart inserts a part, assigning ID and CreatedAt when unset.
// The parent story must exist.
func (s *Store) CreateStoryPart(part *StoryPart) error {
	if part.ID == "" {
		part.ID = uuid.New().String()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = time.Now().UTC()
	}

	if _, err := s.GetStory(part.StoryID); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO story_parts (id, story_id, content, image, audio, choice, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		part.ID, part.StoryID, part.Content, part.Image, part.Audio, part.Choice, part.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create story part: %w", err)
	}
	return nil
}

// ListStoryParts returns a story's parts in ascending creation order.
// Continuation prompts depend on this ordering.
func (s *Store) ListStoryParts(storyID string) ([]StoryPart, error) {
	rows, err := s.db.Query(`
		SELECT id, story_id, content, image, audio, choice, created_at
		FROM story_parts WHERE story_id = ? ORDER BY created_at ASC, id ASC`, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list story parts: %w", err)
	}
	defer rows.Close()

	var parts []StoryPart
	for rows.Next() {
		var part StoryPart
		if err := rows.Scan(&part.ID, &part.StoryID, &part.Content, &part.Image,
			&part.Audio, &part.Choice, &part.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story part: %w", err)
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// GetStoryPart fetches one part by id.
func (s *Store) GetStoryPart(id string) (*StoryPart, error) {
	row := s.db.QueryRow(`
		SELECT id, story_id, content, image, audio, choice, created_at
		FROM story_parts WHERE id = ?`, id)

	var part StoryPart
	err := row.Scan(&part.ID, &part.StoryID, &part.Content, &part.Image,
		&part.Audio, &part.Choice, &part.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story part: %w", err)
	}
	return &part, nil
}

// UpdateStoryPart overwrites a part's mutable fields.
func (s *Store) UpdateStoryPart(part *StoryPart) error {
	result, err := s.db.Exec(`
		UPDATE story_parts SET content = ?, image = ?, audio = ?, choice = ? WHERE id = ?`,
		part.Content, part.Image, part.Audio, part.Choice, part.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update story part: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStoryPart removes a part.
func (s *Store) DeleteStoryPart(id string) error {
	result, err := s.db.Exec(`DELETE FROM story_parts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story part: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
