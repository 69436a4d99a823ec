// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the request bodies of the answer-flow endpoints and
// their validation. Validation here covers wire-level sanity only (sizes,
// enums); row eligibility is the answerflow validator's job and runs over
// the full batch so every failure is reported at once.

package datatypes

import (
	"github.com/go-playground/validator/v10"
)

const (
	// MaxQuestionBytes caps a single question text. Checked in bytes, not
	// runes, to bound memory regardless of encoding.
	MaxQuestionBytes = 16 * 1024

	// MaxRowsPerFlow caps the number of rows in one confirmation attempt.
	MaxRowsPerFlow = 500
)

// flowValidate is the shared validator for flow request bodies.
var flowValidate *validator.Validate

func init() {
	flowValidate = validator.New()
	_ = flowValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces MaxQuestionBytes on string fields.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQuestionBytes
}

// AnswerFlowRequest starts a confirmation flow for the selected rows.
//
// Items may be empty at the wire level: an empty selection is a
// legitimate user action that the engine answers with its own
// "nothing selected" outcome rather than a generic 400.
type AnswerFlowRequest struct {
	Tier        AnswerTier     `json:"tier" validate:"required,oneof=standard enhanced"`
	Path        DispatchPath   `json:"path,omitempty" validate:"omitempty,oneof=bulk quick"`
	VectorIndex string         `json:"vector_index,omitempty"`
	Items       []QuestionItem `json:"items" validate:"max=500,dive"`
}

// Validate checks wire-level constraints on the request.
func (r *AnswerFlowRequest) Validate() error {
	return flowValidate.Struct(r)
}

// FlowDecisionRequest resolves a pending confirmation flow.
type FlowDecisionRequest struct {
	Accept bool `json:"accept"`
}
