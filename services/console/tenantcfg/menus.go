// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenantcfg

import (
	"sort"

	"github.com/questdesk/questdesk/services/console/datatypes"
)

// Menu names for the content configuration dialog dropdowns.
const (
	MenuDomains = "domains"
	MenuCorpora = "corpora"
)

// Menu returns the precomputed dropdown content with the given name,
// building and caching it on first access. The cached content is derived
// state and is cleared by Update and Invalidate.
func (c *Cache) Menu(name string) []MenuEntry {
	c.mu.RLock()
	entries, ok := c.menus[name]
	c.mu.RUnlock()
	if ok {
		return entries
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have built it while we upgraded the lock.
	if entries, ok := c.menus[name]; ok {
		return entries
	}
	entries = buildMenu(name, c.current)
	c.menus[name] = entries
	return entries
}

func buildMenu(name string, cfg *datatypes.TenantConfig) []MenuEntry {
	var entries []MenuEntry
	switch name {
	case MenuDomains:
		for _, d := range cfg.CorpusConfig.Domains {
			entries = append(entries, MenuEntry{
				Value: d.Name,
				Label: cfg.FriendlyName(d.Name),
			})
		}
	case MenuCorpora:
		seen := make(map[string]bool)
		for _, d := range cfg.CorpusConfig.Domains {
			for _, u := range d.Units {
				for _, corpus := range u.Corpora {
					if seen[corpus] {
						continue
					}
					seen[corpus] = true
					entries = append(entries, MenuEntry{
						Value: corpus,
						Label: cfg.FriendlyName(corpus),
					})
				}
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	return entries
}
