// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures shared across the console
// service: question rows, content configurations, tenant configuration,
// license/usage types, and the request/response bodies of the answer-flow
// endpoints.
package datatypes

// AnswerTier selects the model tier an answer job runs against.
type AnswerTier string

const (
	// TierStandard is the default answering tier.
	TierStandard AnswerTier = "standard"

	// TierEnhanced is the premium answering tier with its own usage meter.
	TierEnhanced AnswerTier = "enhanced"
)

// Valid reports whether the tier is one of the known values.
func (t AnswerTier) Valid() bool {
	return t == TierStandard || t == TierEnhanced
}

// Meter returns the usage meter charged for jobs on this tier.
func (t AnswerTier) Meter() MeterID {
	if t == TierEnhanced {
		return MeterEnhancedAnswers
	}
	return MeterStandardAnswers
}

// MeterID names a tenant usage counter that license limits are enforced
// against.
type MeterID string

const (
	// MeterStandardAnswers counts standard-tier AI answers.
	MeterStandardAnswers MeterID = "standard_answers"

	// MeterEnhancedAnswers counts enhanced-tier AI answers.
	MeterEnhancedAnswers MeterID = "enhanced_answers"
)

// DispatchPath selects how the backend batches a dispatched job.
type DispatchPath string

const (
	// PathBulk runs the job through the bulk answering pipeline.
	PathBulk DispatchPath = "bulk"

	// PathQuick runs the job through the low-latency pipeline.
	PathQuick DispatchPath = "quick"
)

// ContentConfiguration describes which corpus slice backs an AI answer:
// the corpus itself, its position in the domain/unit hierarchy, and the
// document topic/type filters applied when retrieving reference material.
//
// DocumentTopics and DocumentTypes are sets; element order carries no
// meaning anywhere in the system.
type ContentConfiguration struct {
	// Corpus is required whenever the configuration is present.
	Corpus string `json:"corpus" validate:"required"`

	// Domain and Unit locate the corpus in the tenant hierarchy. Both are
	// optional at the wire level but required for AI-answer eligibility.
	Domain string `json:"domain,omitempty"`
	Unit   string `json:"unit,omitempty"`

	DocumentTopics []string `json:"document_topics,omitempty"`
	DocumentTypes  []string `json:"document_types,omitempty"`

	// LanguageRules is free-text guidance forwarded to the answering
	// backend. It never participates in grouping.
	LanguageRules string `json:"language_rules,omitempty"`
}

// Complete reports whether the configuration satisfies the AI-answer
// eligibility contract: corpus, domain and unit set, and both filter sets
// non-empty.
func (c *ContentConfiguration) Complete() bool {
	if c == nil {
		return false
	}
	return c.Corpus != "" && c.Domain != "" && c.Unit != "" &&
		len(c.DocumentTopics) > 0 && len(c.DocumentTypes) > 0
}

// QuestionItem is one selectable unit of work from the answering grid.
// The grid owns these rows; the engine only ever sees snapshots captured
// at action time and never mutates them.
type QuestionItem struct {
	ID           string                `json:"id"`
	QuestionText string                `json:"question_text" validate:"maxbytes"`
	AnswerText   string                `json:"answer_text,omitempty"`
	Content      *ContentConfiguration `json:"content,omitempty"`
}
