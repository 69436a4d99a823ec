// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package answerflow

import (
	"errors"
	"fmt"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

// Sentinel errors for the confirmation flow.
var (
	// ErrNothingSelected is returned when a flow is requested for an
	// empty selection. The flow never enters Validating.
	ErrNothingSelected = errors.New("no rows selected")

	// ErrFlowNotFound is returned by the registry for an unknown or
	// expired flow id. The user re-runs the whole flow; nothing from the
	// prior attempt is reused.
	ErrFlowNotFound = errors.New("confirmation flow not found")

	// ErrFlowResolved is returned when a decision arrives for a flow
	// that already reached a terminal state.
	ErrFlowResolved = errors.New("confirmation flow already resolved")
)

// ValidationError reports row-eligibility failures. The embedded result
// always carries the complete failure lists; any display truncation
// ("+N more") is the UI's concern.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	r := e.Result
	return fmt.Sprintf(
		"row validation failed: %d missing content, %d missing id, %d duplicate id, %d short question",
		len(r.MissingContent), len(r.MissingID), len(r.DuplicateID), len(r.ShortQuestion))
}

// LimitBlockedError reports a hard usage breach. Not retryable without
// administrator action.
type LimitBlockedError struct {
	Meter datatypes.MeterID
	Usage int64
	Limit int64
}

func (e *LimitBlockedError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("usage limit breached for meter %s: %d of %d used", e.Meter, e.Usage, e.Limit)
	}
	return fmt.Sprintf("usage limit breached for meter %s", e.Meter)
}

// DispatchError reports a failed job-start call after confirmation. No
// partial state remains; re-invoking the flow re-validates and re-checks
// limits from scratch.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("job dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
