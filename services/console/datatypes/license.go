// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// BreachStatus distinguishes hard and soft usage-limit breaches.
type BreachStatus string

const (
	// BreachBlocked is a hard breach: the meter's operations must be
	// refused until an administrator raises the limit.
	BreachBlocked BreachStatus = "BLOCKED"

	// BreachWarned is a soft breach: usage crossed a warning threshold
	// but operations may proceed.
	BreachWarned BreachStatus = "WARNED"
)

// Breach is one limit breach reported by the license service.
type Breach struct {
	Meter          MeterID      `json:"meter"`
	Status         BreachStatus `json:"status"`
	Usage          int64        `json:"usage"`
	Limit          int64        `json:"limit"`
	WarningPercent float64      `json:"warning_percent"`
}

// Warning is a soft usage warning attached to an admission decision and
// surfaced on the confirmation summary.
type Warning struct {
	Meter        MeterID `json:"meter"`
	UsagePercent float64 `json:"usage_percent"`
}

// UsageReport is the license service's answer for a set of meters.
type UsageReport struct {
	Breaches []Breach  `json:"breaches"`
	Warnings []Warning `json:"warnings"`
}

// ActiveJob describes an answer job currently running for the tenant.
// Only the count matters to the confirmation summary.
type ActiveJob struct {
	JobID         string     `json:"job_id"`
	Tier          AnswerTier `json:"tier"`
	QuestionCount int        `json:"question_count"`
	StartedAt     time.Time  `json:"started_at"`
}

// DispatchRequest is the payload handed to the job-start backend. The
// backend owns per-sub-job batching; the engine only guarantees that the
// sub-job count it reported matches the grouping of RowIDs.
type DispatchRequest struct {
	Tier        AnswerTier   `json:"tier"`
	RowIDs      []string     `json:"row_ids"`
	Path        DispatchPath `json:"path"`
	VectorIndex string       `json:"vector_index,omitempty"`
}

// DispatchReceipt is returned by a successful job start.
type DispatchReceipt struct {
	JobID    string `json:"job_id"`
	ShardKey string `json:"shard_key"`
}
