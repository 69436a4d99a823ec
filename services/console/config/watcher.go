// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further writes
// before firing. Editors and config-management tools often rewrite a
// file in several quick operations; one changed signal per burst is
// enough.
const DefaultDebounce = 200 * time.Millisecond

// ChangeHandler is called once per debounced burst of writes to the
// watched file.
type ChangeHandler func()

// Watcher fires a changed signal when the configuration file on disk is
// rewritten. The console wires this to the tenant-config and license
// cache invalidations so a config push takes effect without a restart.
//
// The parent directory is watched rather than the file itself: atomic
// replace (write temp, rename over) would otherwise silently detach the
// watch.
type Watcher struct {
	path     string
	handler  ChangeHandler
	debounce time.Duration
	fsw      *fsnotify.Watcher

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the config file at path. Call Start
// to begin watching and Stop to release the inotify handle.
func NewWatcher(path string, handler ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     filepath.Clean(path),
		handler:  handler,
		debounce: DefaultDebounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns an error when the parent directory
// cannot be watched; events are then delivered on a background
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.loop(ctx)
	slog.Info("watching config file", "path", w.path)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			slog.Info("config file changed", "path", w.path)
			if w.handler != nil {
				w.handler()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
