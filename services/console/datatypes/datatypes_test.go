// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerTierMeter(t *testing.T) {
	assert.Equal(t, MeterStandardAnswers, TierStandard.Meter())
	assert.Equal(t, MeterEnhancedAnswers, TierEnhanced.Meter())
	assert.True(t, TierStandard.Valid())
	assert.True(t, TierEnhanced.Valid())
	assert.False(t, AnswerTier("premium").Valid())
}

func TestContentConfigurationComplete(t *testing.T) {
	t.Run("nil is incomplete", func(t *testing.T) {
		var c *ContentConfiguration
		assert.False(t, c.Complete())
	})

	t.Run("full configuration is complete", func(t *testing.T) {
		c := &ContentConfiguration{
			Corpus:         "rfp",
			Domain:         "beauty",
			Unit:           "olay",
			DocumentTopics: []string{"functional"},
			DocumentTypes:  []string{"contract"},
		}
		assert.True(t, c.Complete())
	})

	t.Run("missing unit is incomplete", func(t *testing.T) {
		c := &ContentConfiguration{
			Corpus:         "rfp",
			Domain:         "beauty",
			DocumentTopics: []string{"functional"},
			DocumentTypes:  []string{"contract"},
		}
		assert.False(t, c.Complete())
	})

	t.Run("empty type set is incomplete", func(t *testing.T) {
		c := &ContentConfiguration{
			Corpus:         "rfp",
			Domain:         "beauty",
			Unit:           "olay",
			DocumentTopics: []string{"functional"},
		}
		assert.False(t, c.Complete())
	})
}

func TestTenantConfigLookups(t *testing.T) {
	tc := &TenantConfig{
		CorpusConfig: CorpusConfig{
			Domains: []DomainConfig{
				{
					Name: "beauty",
					Units: []UnitConfig{
						{Name: "olay", Corpora: []string{"rfp", "security"}},
					},
				},
			},
		},
		LabelFriendlyNames: map[string]string{"rfp": "RFP Library"},
	}

	assert.True(t, tc.Loaded())
	assert.True(t, tc.HasCorpus("beauty", "olay", "rfp"))
	assert.False(t, tc.HasCorpus("beauty", "olay", "unknown"))
	assert.False(t, tc.HasCorpus("beauty", "head", "rfp"))
	assert.Equal(t, "RFP Library", tc.FriendlyName("rfp"))
	assert.Equal(t, "security", tc.FriendlyName("security"))
}

func TestEmptyTenantConfig(t *testing.T) {
	tc := EmptyTenantConfig()
	assert.False(t, tc.Loaded())
	assert.False(t, tc.HasCorpus("a", "b", "c"))
	assert.NotNil(t, tc.LabelFriendlyNames)
	assert.NotNil(t, tc.TopicTypePreselection)
}

func TestAnswerFlowRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := &AnswerFlowRequest{
			Tier:  TierStandard,
			Items: []QuestionItem{{ID: "q1", QuestionText: "Describe your SLAs."}},
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("empty selection is wire-valid", func(t *testing.T) {
		req := &AnswerFlowRequest{Tier: TierEnhanced}
		assert.NoError(t, req.Validate())
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		req := &AnswerFlowRequest{Tier: "premium"}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown path rejected", func(t *testing.T) {
		req := &AnswerFlowRequest{Tier: TierStandard, Path: "stream"}
		assert.Error(t, req.Validate())
	})

	t.Run("oversized question text rejected", func(t *testing.T) {
		req := &AnswerFlowRequest{
			Tier:  TierStandard,
			Items: []QuestionItem{{ID: "q1", QuestionText: strings.Repeat("a", MaxQuestionBytes+1)}},
		}
		assert.Error(t, req.Validate())
	})
}
