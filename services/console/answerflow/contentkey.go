// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package answerflow implements the AI-answer job batching and
// admission-control engine behind the answering grid toolbar: row
// validation, sub-job grouping by canonical content key, license gating,
// and the confirmation state machine that sequences them.
package answerflow

import (
	"slices"
	"strings"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

// ContentKey is the canonical, order-independent identity of a content
// configuration. It is used strictly for equality and grouping, never for
// display.
type ContentKey string

// UnconfiguredKey is the sentinel key shared by every row whose content
// configuration is absent or incomplete. Grouping never fails on such
// rows; validation rejects them before grouping runs, so in practice this
// key only shows up in the favorites duplicate check.
const UnconfiguredKey ContentKey = "~unconfigured~"

// Field and set-element separators. Both are control characters so that
// user-entered corpus, topic and type names cannot collide with the key
// structure.
const (
	keyFieldSep = "\x1f"
	keySetSep   = "\x1e"
)

// BuildContentKey derives the canonical key for a content configuration.
//
// The key is built from corpus, domain and unit (empty string when
// absent) and the sorted elements of the topic and type sets. Sorting is
// the contract, not an implementation detail: two configurations that
// differ only in element order must produce identical keys.
//
// Pure function: deterministic, no side effects, and the input slices are
// never mutated (sorting happens on copies).
func BuildContentKey(cfg *datatypes.ContentConfiguration) ContentKey {
	if cfg == nil || cfg.Corpus == "" ||
		len(cfg.DocumentTopics) == 0 || len(cfg.DocumentTypes) == 0 {
		return UnconfiguredKey
	}

	topics := slices.Clone(cfg.DocumentTopics)
	slices.Sort(topics)
	types := slices.Clone(cfg.DocumentTypes)
	slices.Sort(types)

	parts := []string{
		cfg.Corpus,
		cfg.Domain,
		cfg.Unit,
		strings.Join(topics, keySetSep),
		strings.Join(types, keySetSep),
	}
	return ContentKey(strings.Join(parts, keyFieldSep))
}
