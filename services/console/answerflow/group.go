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

// SubJobGroup is a non-empty set of rows sharing one content key, plus
// the configuration they share. Groups are computed fresh on every
// confirmation attempt and discarded after dispatch or cancellation.
type SubJobGroup struct {
	Key     ContentKey
	Content *datatypes.ContentConfiguration
	Items   []datatypes.QuestionItem
}

// GroupRows partitions rows into sub-job groups keyed by canonical
// content key.
//
// Single pass: each row's key is computed and the row appended to the
// group for that key, creating the group on first encounter. The returned
// slice is in first-seen key order; that order is incidental and callers
// may rely only on group count and membership. The union of all group
// memberships is exactly the input set.
//
// GroupRows assumes validation has already run; rows without a usable
// configuration all land under UnconfiguredKey rather than causing an
// error.
func GroupRows(items []datatypes.QuestionItem) []SubJobGroup {
	var groups []SubJobGroup
	index := make(map[ContentKey]int, len(items))

	for _, item := range items {
		key := BuildContentKey(item.Content)
		at, ok := index[key]
		if !ok {
			at = len(groups)
			index[key] = at
			groups = append(groups, SubJobGroup{Key: key, Content: item.Content})
		}
		groups[at].Items = append(groups[at].Items, item)
	}

	return groups
}
