/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cardfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"gobizcard/internal/domain"
	applog "gobizcard/internal/log"
)

// Debounce is the quiet period after the last change before a reload.
var Debounce = 300 * time.Millisecond

// Watch reloads the card file whenever it changes and passes the result to fn.
// The containing directory is watched so editors that replace the file are
// seen too. fn runs on the watch goroutine, one call at a time. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, path string, fn func(*domain.Composition, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch dir %s: %w", filepath.Dir(abs), err)
	}
	l := applog.WithOperation(applog.WithComponent("cardfile"), "watch")
	l.Info("watching card file", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != abs {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			comp, err := Load(abs)
			if err != nil {
				l.Warn("card file reload failed", slog.Any("err", err))
			} else {
				l.Debug("card file reloaded")
			}
			fn(comp, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watch error", slog.Any("err", err))
		}
	}
}
