// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// TenantConfig is the corpus metadata a tenant operates against. It is
// fetched from the platform backend and cached by tenantcfg.Cache; the
// three sub-structures are always replaced wholesale, never merged
// field-by-field, so readers observe either the old or the new state.
type TenantConfig struct {
	// CorpusConfig is the domain → unit → corpus hierarchy plus the
	// tenant's favorite content slots.
	CorpusConfig CorpusConfig `json:"corpus_config"`

	// LabelFriendlyNames maps internal label ids (corpus ids, topic ids,
	// type ids) to display names.
	LabelFriendlyNames map[string]string `json:"label_friendly_names"`

	// TopicTypePreselection maps a document topic to the document types
	// preselected for it in the import wizard and content dialogs.
	TopicTypePreselection map[string][]string `json:"topic_type_preselection"`
}

// CorpusConfig holds the corpus hierarchy and favorite slots.
type CorpusConfig struct {
	Domains       []DomainConfig `json:"domains"`
	FavoriteSlots []FavoriteSlot `json:"favorite_slots"`
}

// DomainConfig is one domain with its units.
type DomainConfig struct {
	Name  string       `json:"name"`
	Units []UnitConfig `json:"units"`
}

// UnitConfig is one unit with the corpora available under it.
type UnitConfig struct {
	Name    string   `json:"name"`
	Corpora []string `json:"corpora"`
}

// FavoriteSlot is a saved content configuration slot. ContentKey is the
// canonical key of the saved configuration and is used for
// duplicate-favorite detection.
type FavoriteSlot struct {
	Slot       int    `json:"slot"`
	Label      string `json:"label"`
	ContentKey string `json:"content_key"`
}

// EmptyTenantConfig returns a usable zero configuration. Consumers that
// query the cache before any load completes receive this instead of nil,
// so lookups degrade to "not found" rather than panics.
func EmptyTenantConfig() *TenantConfig {
	return &TenantConfig{
		LabelFriendlyNames:    map[string]string{},
		TopicTypePreselection: map[string][]string{},
	}
}

// Loaded reports whether the configuration carries any hierarchy data.
func (tc *TenantConfig) Loaded() bool {
	return tc != nil && len(tc.CorpusConfig.Domains) > 0
}

// HasCorpus reports whether the given domain/unit/corpus triple exists in
// the hierarchy.
func (tc *TenantConfig) HasCorpus(domain, unit, corpus string) bool {
	if tc == nil {
		return false
	}
	for _, d := range tc.CorpusConfig.Domains {
		if d.Name != domain {
			continue
		}
		for _, u := range d.Units {
			if u.Name != unit {
				continue
			}
			for _, c := range u.Corpora {
				if c == corpus {
					return true
				}
			}
		}
	}
	return false
}

// FriendlyName returns the display name for a label id, falling back to
// the id itself when no mapping exists.
func (tc *TenantConfig) FriendlyName(id string) string {
	if tc == nil {
		return id
	}
	if name, ok := tc.LabelFriendlyNames[id]; ok {
		return name
	}
	return id
}
