/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gobizcard/internal/config"
	"gobizcard/internal/domain"
	"gobizcard/internal/surface"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.Export.OutDir = t.TempDir()
	cfg.Render.Density = 1
	cfg.Render.AllowRemote = false
	return cfg
}

func TestNew_ExportsWithConfiguredSaver(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.sqlite")
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	res, err := s.Pipeline.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Dir(res.Path) != cfg.Export.OutDir || filepath.Base(res.Path) != "business-card.pdf" {
		t.Fatalf("saved to %s", res.Path)
	}
	if res.Density != 1 {
		t.Fatalf("configured density not used: %v", res.Density)
	}
	entries, err := s.History.Recent(context.Background(), 5)
	if err != nil || len(entries) != 1 || entries[0].Path != res.Path {
		t.Fatalf("history entries %+v %v", entries, err)
	}
}

func TestNew_RejectsUnknownPresetAndMissingFont(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Preset = "poster"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected preset error")
	}
	cfg = testConfig(t)
	cfg.Fonts.Serif = filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected font error")
	}
}

func TestSession_DragThroughController(t *testing.T) {
	s, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	comp := s.Composition()
	id, _ := comp.AddLayer("logo.png")

	var changes int
	s.Replace(comp, func(domain.LayerID) { changes++ })
	ctrl := s.Controller()
	if !ctrl.PointerDownAt(domain.Point{X: 20, Y: 30}, surface.LayerSize) {
		t.Fatalf("expected hit on the default placed layer")
	}
	ctrl.PointerMove(domain.Point{X: 120, Y: 80})
	ctrl.PointerUp()
	l, _ := comp.Layer(id)
	if l.X != 110 || l.Y != 60 || changes != 1 {
		t.Fatalf("layer at (%v,%v), changes=%d", l.X, l.Y, changes)
	}
}

func TestSession_PressDragRelease(t *testing.T) {
	s, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	comp := s.Composition()
	id, _ := comp.AddLayer("logo.png")

	if s.Press(domain.Point{X: 300, Y: 180}) {
		t.Fatalf("press outside every layer started a drag")
	}
	if !s.Press(domain.Point{X: 15, Y: 15}) {
		t.Fatalf("press on layer missed")
	}
	s.Drag(domain.Point{X: 45, Y: 25})
	s.Release()
	if s.Drag(domain.Point{X: 90, Y: 90}) {
		t.Fatalf("drag continued after release")
	}
	if l, _ := comp.Layer(id); l.X != 40 || l.Y != 20 {
		t.Fatalf("layer at (%v,%v), want (40,20)", l.X, l.Y)
	}

	s.Press(domain.Point{X: 45, Y: 25})
	s.Leave()
	if s.Drag(domain.Point{X: 200, Y: 100}) {
		t.Fatalf("drag continued after pointer left")
	}
}

func TestUseViewScale_OnlyWithoutPinnedDensity(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.UseViewScale(func() float64 { return 2 })
	if got := s.Pipeline.Density(); got != 1 {
		t.Fatalf("pinned density overridden: %v", got)
	}
	_ = s.Close()

	cfg.Render.Density = 0
	s, err = New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.UseViewScale(func() float64 { return 2 })
	if got := s.Pipeline.Density(); got != 2 {
		t.Fatalf("view scale not used: %v", got)
	}
}

func TestClose_UnmountsCard(t *testing.T) {
	s, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	res, err := s.Pipeline.Export(context.Background())
	if err != nil || !res.Skipped {
		t.Fatalf("export after close should skip: %+v %v", res, err)
	}
	entries, _ := os.ReadDir(s.Config.Export.OutDir)
	if len(entries) != 0 {
		t.Fatalf("files written after close")
	}
}
