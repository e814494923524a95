// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package progress implements best-effort progress broadcasting for
// long-running generation processes.
//
// Each in-flight process (story generation, story continuation, minting)
// owns one Tracker bound to a logical channel named
// "progress:<processType>:<processId>". Status updates go out on the base
// channel; errors and completions go out on ":error" and ":complete"
// sub-channels derived from it.
//
// Delivery is at-most-once to whoever is subscribed at publish time. The
// HTTP response is the authoritative result channel; these events are purely
// advisory, so publish failures never abort the process being reported on.
package progress

import "strings"

const (
	// channelPrefix namespaces all progress channels.
	channelPrefix = "progress:"

	errorSuffix    = ":error"
	completeSuffix = ":complete"
)

// Notifier is the one-way broadcast transport. Implementations publish the
// payload to every subscriber currently attached to the channel and make no
// delivery guarantee.
type Notifier interface {
	Publish(channel string, payload map[string]any) error
}

// ChannelName derives the logical channel for a process.
//
//	ChannelName("story", "0xabc...") == "progress:story:0xabc..."
func ChannelName(processType, processID string) string {
	return channelPrefix + processType + ":" + processID
}

// baseChannel strips an ":error" or ":complete" suffix so a subscription to
// the base channel also receives its sub-channel events.
func baseChannel(channel string) string {
	if s, ok := strings.CutSuffix(channel, errorSuffix); ok {
		return s
	}
	if s, ok := strings.CutSuffix(channel, completeSuffix); ok {
		return s
	}
	return channel
}
