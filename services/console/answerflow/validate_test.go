// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package answerflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

// testSnapshot returns a hierarchy with beauty/{olay,head}/rfp.
func testSnapshot() *datatypes.TenantConfig {
	snap := datatypes.EmptyTenantConfig()
	snap.CorpusConfig.Domains = []datatypes.DomainConfig{
		{Name: "beauty", Units: []datatypes.UnitConfig{
			{Name: "olay", Corpora: []string{"rfp"}},
			{Name: "head", Corpora: []string{"rfp"}},
		}},
	}
	return snap
}

func testContent(unit string) *datatypes.ContentConfiguration {
	return &datatypes.ContentConfiguration{
		Corpus:         "rfp",
		Domain:         "beauty",
		Unit:           unit,
		DocumentTopics: []string{"pricing"},
		DocumentTypes:  []string{"pdf"},
	}
}

func TestValidateRows_AllValid(t *testing.T) {
	items := []datatypes.QuestionItem{
		{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
		{ID: "q-2", QuestionText: "Describe your backup policy.", Content: testContent("head")},
	}
	result := ValidateRows(items, testSnapshot())
	assert.True(t, result.Valid())
}

func TestValidateRows_CollectsEveryFailure(t *testing.T) {
	// One batch carrying all four failure categories at once: the pass
	// must report everything, not stop at the first problem.
	items := []datatypes.QuestionItem{
		{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
		{ID: "", QuestionText: "How is data encrypted at rest?", Content: testContent("olay")},
		{ID: "q-1", QuestionText: "Second use of the same id here.", Content: testContent("olay")},
		{ID: "q-3", QuestionText: "short one", Content: testContent("olay")},
		{ID: "q-4", QuestionText: "Which regions do you operate in?", Content: nil},
	}
	result := ValidateRows(items, testSnapshot())

	assert.False(t, result.Valid())
	assert.Equal(t, []int{1}, result.MissingID)
	assert.Equal(t, []string{"q-1"}, result.DuplicateID)
	assert.Equal(t, []string{"q-3"}, result.ShortQuestion)
	assert.Equal(t, []string{"q-4"}, result.MissingContent)
}

func TestValidateRows_DuplicateReportedOnce(t *testing.T) {
	items := []datatypes.QuestionItem{
		{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
		{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
		{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
	}
	result := ValidateRows(items, testSnapshot())
	assert.Equal(t, []string{"q-1"}, result.DuplicateID)
}

func TestValidateRows_MissingIDSkipsOtherChecks(t *testing.T) {
	// A row with no id is unreferenceable; it is reported by position
	// only and never double-counted in the id-keyed categories.
	items := []datatypes.QuestionItem{
		{ID: "", QuestionText: "short", Content: nil},
	}
	result := ValidateRows(items, testSnapshot())
	assert.Equal(t, []int{0}, result.MissingID)
	assert.Empty(t, result.ShortQuestion)
	assert.Empty(t, result.MissingContent)
}

func TestValidateRows_ShortQuestionBoundary(t *testing.T) {
	nine := "123456789"
	ten := "1234567890"
	items := []datatypes.QuestionItem{
		{ID: "q-1", QuestionText: nine, Content: testContent("olay")},
		{ID: "q-2", QuestionText: ten, Content: testContent("olay")},
	}
	result := ValidateRows(items, testSnapshot())
	assert.Equal(t, []string{"q-1"}, result.ShortQuestion)
}

func TestValidateRows_NoTrimmingBeforeLengthCheck(t *testing.T) {
	// Ten bytes of padded whitespace pass; the check is raw length.
	items := []datatypes.QuestionItem{
		{ID: "q-1", QuestionText: "   hi?    ", Content: testContent("olay")},
	}
	result := ValidateRows(items, testSnapshot())
	assert.Empty(t, result.ShortQuestion)
}

func TestValidateRows_ContentChecks(t *testing.T) {
	t.Run("incomplete configuration", func(t *testing.T) {
		cfg := testContent("olay")
		cfg.DocumentTypes = nil
		items := []datatypes.QuestionItem{
			{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: cfg},
		}
		result := ValidateRows(items, testSnapshot())
		assert.Equal(t, []string{"q-1"}, result.MissingContent)
	})

	t.Run("corpus not in hierarchy", func(t *testing.T) {
		cfg := testContent("olay")
		cfg.Corpus = "no-such-corpus"
		items := []datatypes.QuestionItem{
			{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: cfg},
		}
		result := ValidateRows(items, testSnapshot())
		assert.Equal(t, []string{"q-1"}, result.MissingContent)
	})

	t.Run("empty snapshot marks everything missing", func(t *testing.T) {
		items := []datatypes.QuestionItem{
			{ID: "q-1", QuestionText: "What is your uptime SLA?", Content: testContent("olay")},
		}
		result := ValidateRows(items, datatypes.EmptyTenantConfig())
		assert.Equal(t, []string{"q-1"}, result.MissingContent)
	})
}
