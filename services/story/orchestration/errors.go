// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestration

import "fmt"

// The orchestrator classifies every failure into one of four stage errors.
// Handlers map ValidationError to 400 and the rest to 500; the error event
// published on the progress channel carries the same message.

// ValidationError marks malformed input rejected before any stage ran.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GenerationError marks a text-generation stage failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("story generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// MintError marks a mint handoff failure, either transport-level or a
// relay-reported rejection.
type MintError struct {
	Message string
}

func (e *MintError) Error() string {
	return fmt.Sprintf("failed to mint NFT: %s", e.Message)
}

// PersistenceError marks a storage failure after generation succeeded.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save story data: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
