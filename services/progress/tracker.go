// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import (
	"log/slog"
	"time"
)

// Service hands out Trackers bound to a shared broadcast transport.
// The transport handle is publish-only, so Service is safe for concurrent
// use without locking.
type Service struct {
	notifier Notifier
}

// NewService creates a Service publishing through the given notifier.
func NewService(notifier Notifier) *Service {
	return &Service{notifier: notifier}
}

// CreateTracker creates a progress tracker for one process.
//
// processID uniquely identifies the process (a story id, a recipient
// address); processType groups processes of the same kind ("story",
// "storyPart", "mint"). The tracker lives only as long as the orchestration
// call that owns it.
func (s *Service) CreateTracker(processID, processType string) *Tracker {
	return &Tracker{
		channel:  ChannelName(processType, processID),
		notifier: s.notifier,
	}
}

// Tracker broadcasts status, error, and completion events for one process.
//
// All three operations are fire-and-forget: no return value, no
// acknowledgement. Broadcast failures are logged and swallowed because
// progress notification is best-effort and must never abort the
// orchestration it is reporting on.
type Tracker struct {
	channel  string
	notifier Notifier
}

// Channel returns the tracker's base channel name.
func (t *Tracker) Channel() string {
	return t.channel
}

// Update broadcasts a status event on the base channel.
//
// status is a dotted message key (e.g. "story.progress.starting") and
// progress a percentage 0-100. Within one tracker's lifetime callers must
// report non-decreasing progress values; a later value supersedes an
// earlier one on the consumer side.
func (t *Tracker) Update(status string, progress int, extra map[string]any) {
	payload := map[string]any{
		"status":   status,
		"progress": progress,
	}
	t.publish(t.channel, payload, extra)
}

// Error broadcasts an error event on the ":error" sub-channel.
func (t *Tracker) Error(message string, extra map[string]any) {
	payload := map[string]any{
		"error": message,
	}
	t.publish(t.channel+errorSuffix, payload, extra)
}

// Complete broadcasts a completion event carrying the final payload on the
// ":complete" sub-channel.
func (t *Tracker) Complete(data any, extra map[string]any) {
	payload := map[string]any{
		"data": data,
	}
	t.publish(t.channel+completeSuffix, payload, extra)
}

func (t *Tracker) publish(channel string, payload, extra map[string]any) {
	for k, v := range extra {
		payload[k] = v
	}
	// Timestamp last so extras cannot shadow it.
	payload["timestamp"] = time.Now().UTC()

	if err := t.notifier.Publish(channel, payload); err != nil {
		slog.Warn("progress broadcast failed", "channel", channel, "error", err)
	}
}
