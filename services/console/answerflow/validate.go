// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package answerflow

import (
	"github.com/questdesk/questdesk/services/console/datatypes"
)

// MinQuestionLength is the minimum raw byte length of a question text for
// AI-answer eligibility. No trimming is applied before the check.
const MinQuestionLength = 10

// ValidationResult collects every row-eligibility failure in a batch.
// All four checks run over the full batch unconditionally so one
// confirmation attempt surfaces every problem at once instead of forcing
// fix-one-resubmit cycles.
type ValidationResult struct {
	// MissingContent lists ids of rows whose content configuration is
	// absent, incomplete, or cannot be found in the tenant hierarchy.
	MissingContent []string `json:"missing_content"`

	// MissingID lists the positions of rows with no id. Positions are
	// reported because there is no id to reference.
	MissingID []int `json:"missing_id"`

	// DuplicateID lists ids that appear more than once. Each duplicate
	// id is reported once; the first occurrence is not flagged.
	DuplicateID []string `json:"duplicate_id"`

	// ShortQuestion lists ids of rows whose question text is shorter
	// than MinQuestionLength.
	ShortQuestion []string `json:"short_question"`
}

// Valid reports whether all four failure categories are empty.
func (r ValidationResult) Valid() bool {
	return len(r.MissingContent) == 0 && len(r.MissingID) == 0 &&
		len(r.DuplicateID) == 0 && len(r.ShortQuestion) == 0
}

// ValidateRows checks every selected row against the eligibility
// contract. It is a pure inspection pass over snapshots: no I/O, no
// mutation, and the caller owns how failures are surfaced.
//
// snap is the tenant configuration snapshot captured at action time. A
// row whose configuration cannot be checked against the corpus hierarchy
// (including the case where no configuration has loaded yet) counts as
// missing content rather than failing the whole pass.
func ValidateRows(items []datatypes.QuestionItem, snap *datatypes.TenantConfig) ValidationResult {
	var result ValidationResult

	seen := make(map[string]int, len(items))
	flaggedDup := make(map[string]bool)

	for i, item := range items {
		if item.ID == "" {
			result.MissingID = append(result.MissingID, i)
			continue
		}

		if _, dup := seen[item.ID]; dup {
			if !flaggedDup[item.ID] {
				result.DuplicateID = append(result.DuplicateID, item.ID)
				flaggedDup[item.ID] = true
			}
		} else {
			seen[item.ID] = i
		}

		if !contentUsable(item.Content, snap) {
			result.MissingContent = append(result.MissingContent, item.ID)
		}

		if len(item.QuestionText) < MinQuestionLength {
			result.ShortQuestion = append(result.ShortQuestion, item.ID)
		}
	}

	return result
}

// contentUsable reports whether a row's configuration is complete and
// resolvable against the snapshot hierarchy.
func contentUsable(cfg *datatypes.ContentConfiguration, snap *datatypes.TenantConfig) bool {
	if !cfg.Complete() {
		return false
	}
	// An empty snapshot has no corpora, so unverifiable configurations
	// fall out here as "missing content" (fail-safe, never a panic).
	return snap.HasCorpus(cfg.Domain, cfg.Unit, cfg.Corpus)
}
