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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gobizcard/internal/domain"
)

const sample = `
name: Ada Lovelace
company: Analytical Engines Ltd.
font: serif
background:
  kind: image
  color: "#bfdbfe"
  image: paper.png
layers:
  - source: logo.png
    x: 240
    y: 120
  - source: https://example.com/badge.png
`

func TestParse_AppliesDocument(t *testing.T) {
	comp, err := Parse([]byte(sample), "/cards")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := comp.Snapshot()
	if s.Fields.Name != "Ada Lovelace" || s.Fields.Company != "Analytical Engines Ltd." {
		t.Fatalf("fields %+v", s.Fields)
	}
	if s.Fields.Email != "example@example.com" {
		t.Fatalf("absent email should keep the default, got %q", s.Fields.Email)
	}
	if s.Font != domain.FontSerif {
		t.Fatalf("font %q", s.Font)
	}
	if s.Background.Kind != domain.BackgroundImage || s.Background.Color != "#bfdbfe" ||
		s.Background.Image != domain.ImageRef(filepath.Join("/cards", "paper.png")) {
		t.Fatalf("background %+v", s.Background)
	}
	if len(s.Layers) != 2 {
		t.Fatalf("layers %+v", s.Layers)
	}
	if l := s.Layers[0]; l.X != 240 || l.Y != 120 || l.Source != domain.ImageRef(filepath.Join("/cards", "logo.png")) {
		t.Fatalf("first layer %+v", l)
	}
	if l := s.Layers[1]; l.Pos() != domain.DefaultLayerPos || l.Source != "https://example.com/badge.png" {
		t.Fatalf("second layer %+v", l)
	}
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	comp, err := Parse(nil, "")
	if err != nil {
		t.Fatalf("Parse(empty): %v", err)
	}
	want := domain.NewComposition().Snapshot()
	got := comp.Snapshot()
	if got.Fields != want.Fields || got.Background != want.Background || got.Font != want.Font {
		t.Fatalf("defaults changed: %+v", got)
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown font":  "font: comic-sans\n",
		"unknown field": "title: CEO\n",
		"bad colour":    "background:\n  color: blue\n",
		"empty source":  "layers:\n  - source: \"\"\n",
		"string x":      "layers:\n  - source: a.png\n    x: left\n",
		"malformed":     "name: [unterminated\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc), ""); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "card.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	old := Debounce
	Debounce = 20 * time.Millisecond
	t.Cleanup(func() { Debounce = old })

	dir := t.TempDir()
	path := filepath.Join(dir, "card.yaml")
	if err := os.WriteFile(path, []byte("name: First\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan string, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, path, func(c *domain.Composition, err error) {
			if err == nil {
				got <- c.Fields().Name
			}
		})
	}()

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case name := <-got:
			if name != "Second" {
				continue
			}
			cancel()
			if err := <-errc; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-tick.C:
			// keep writing until the watcher is registered and reports the change
			if err := os.WriteFile(path, []byte("name: Second\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatalf("no reload observed")
		}
	}
}
