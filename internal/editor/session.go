/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires one card composition to its surface, drag controller
// and export pipeline according to the application configuration. The CLI and
// the desktop window both build on a Session.
package editor

import (
	"fmt"
	"log/slog"
	"sync"

	"gobizcard/internal/assets"
	"gobizcard/internal/config"
	"gobizcard/internal/domain"
	"gobizcard/internal/export"
	"gobizcard/internal/history"
	"gobizcard/internal/interact"
	applog "gobizcard/internal/log"
	"gobizcard/internal/surface"
	"gobizcard/internal/textlayout"
)

// Session is an editing session for a single card.
type Session struct {
	Config   config.AppConfig
	Loader   *assets.Loader
	Card     *surface.Card
	Pipeline *export.Pipeline
	// History is nil unless enabled in the configuration.
	History *history.Ledger

	mu   sync.Mutex
	comp *domain.Composition
	ctrl *interact.Controller
	log  *slog.Logger
}

// New builds a session around comp; a nil comp starts from the editor defaults.
func New(cfg config.AppConfig, comp *domain.Composition) (*Session, error) {
	l := applog.WithComponent("editor")
	if comp == nil {
		comp = domain.NewComposition()
	}
	lib := textlayout.NewFontLibrary()
	if err := lib.LoadFamilies(map[string]string{
		string(domain.FontSans):  cfg.Fonts.Sans,
		string(domain.FontSerif): cfg.Fonts.Serif,
		string(domain.FontMono):  cfg.Fonts.Mono,
	}); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	preset, err := export.LookupPreset(cfg.Export.Preset)
	if err != nil {
		return nil, err
	}

	loader := assets.NewLoader(cfg.Render.AllowRemote, cfg.Render.FetchTimeout())
	card := surface.NewCard(loader, textlayout.GoFontProvider{Lib: lib})
	card.Mount(comp)
	p := &export.Pipeline{
		Surface:  card,
		Saver:    export.FileSaver{Dir: cfg.Export.OutDir, Overwrite: cfg.Export.Overwrite},
		Geometry: export.CardGeometry,
		Filename: cfg.Export.Filename,
	}
	preset.Apply(p, cfg.Render.Density, cfg.Render.DPI)

	s := &Session{
		Config:   cfg,
		Loader:   loader,
		Card:     card,
		Pipeline: p,
		comp:     comp,
		log:      l,
	}
	s.ctrl = interact.NewController(comp)

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, err
		}
		lg, err := history.Open(path)
		if err != nil {
			// the ledger is optional; exports still work without it
			l.Warn("export history unavailable", slog.String("path", path), slog.Any("err", err))
		} else {
			s.History = lg
			p.Recorder = lg
		}
	}
	l.Debug("session ready", slog.String("preset", string(preset.Name)), slog.Bool("history", s.History != nil))
	return s, nil
}

// Composition returns the mounted composition.
func (s *Session) Composition() *domain.Composition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comp
}

// Controller returns the drag controller bound to the current composition.
func (s *Session) Controller() *interact.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Replace mounts a new composition, for example after a card file reload.
// Any drag in progress is dropped with the old controller; onChange is registered on the new one.
func (s *Session) Replace(comp *domain.Composition, onChange func(domain.LayerID)) {
	s.mu.Lock()
	s.comp = comp
	s.ctrl = interact.NewController(comp)
	if onChange != nil {
		s.ctrl.OnChange(onChange)
	}
	s.mu.Unlock()
	s.Card.Mount(comp)
}

// Press starts dragging the top-most layer under pt.
func (s *Session) Press(pt domain.Point) bool {
	return s.Controller().PointerDownAt(pt, surface.LayerSize)
}

// Drag forwards a pointer move to the controller.
func (s *Session) Drag(pt domain.Point) bool {
	return s.Controller().PointerMove(pt)
}

// Release ends a drag on button up.
func (s *Session) Release() { s.Controller().PointerUp() }

// Leave ends a drag when the pointer leaves the card.
func (s *Session) Leave() { s.Controller().PointerLeave() }

// UseViewScale makes exports follow the display scale, unless the
// configuration pins a density.
func (s *Session) UseViewScale(scale func() float64) {
	if s.Config.Render.Density > 0 || scale == nil {
		return
	}
	s.Pipeline.Density = scale
}

// Close releases the history ledger.
func (s *Session) Close() error {
	s.Card.Unmount()
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}
