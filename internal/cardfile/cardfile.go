/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cardfile reads YAML card descriptions used by the command line.
//
// A card file is validated against an embedded JSON schema before it is
// decoded, then replayed onto a fresh composition through the model's own
// operations.
package cardfile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"gobizcard/internal/domain"
)

//go:embed card.schema.json
var schemaJSON []byte

// ErrInvalid wraps schema violations and malformed YAML.
var ErrInvalid = errors.New("invalid card file")

// Document is the decoded card file. Absent text fields keep the editor defaults.
type Document struct {
	Name       *string        `yaml:"name,omitempty"`
	Company    *string        `yaml:"company,omitempty"`
	Email      *string        `yaml:"email,omitempty"`
	Font       string         `yaml:"font,omitempty"`
	Background *BackgroundDoc `yaml:"background,omitempty"`
	Layers     []LayerDoc     `yaml:"layers,omitempty"`
}

type BackgroundDoc struct {
	Kind  string `yaml:"kind,omitempty"`
	Color string `yaml:"color,omitempty"`
	Image string `yaml:"image,omitempty"`
}

// LayerDoc places one image layer; a missing position keeps the default placement.
type LayerDoc struct {
	Source string   `yaml:"source"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
}

// Validate checks raw YAML against the card schema.
func Validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(js))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates and decodes data into a new composition. Relative file
// references are resolved against baseDir when it is not empty.
func Parse(data []byte, baseDir string) (*domain.Composition, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return doc.Apply(domain.NewComposition(), baseDir), nil
}

// Load reads and parses the card file at path.
func Load(path string) (*domain.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card file: %w", err)
	}
	comp, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return comp, nil
}

// Apply replays the document onto comp and returns it.
func (d Document) Apply(comp *domain.Composition, baseDir string) *domain.Composition {
	if d.Name != nil {
		comp.SetName(*d.Name)
	}
	if d.Company != nil {
		comp.SetCompany(*d.Company)
	}
	if d.Email != nil {
		comp.SetEmail(*d.Email)
	}
	if d.Font != "" {
		comp.SetFont(domain.FontFamily(d.Font))
	}
	if bg := d.Background; bg != nil {
		if bg.Color != "" {
			comp.SetBackgroundColor(domain.ColorHex(bg.Color))
		}
		if bg.Image != "" {
			comp.SetBackgroundImage(domain.ImageRef(resolveRef(baseDir, bg.Image)))
		}
		if bg.Kind != "" {
			comp.SetBackgroundKind(domain.BackgroundKind(bg.Kind))
		}
	}
	for _, l := range d.Layers {
		id, ok := comp.AddLayer(domain.ImageRef(resolveRef(baseDir, l.Source)))
		if !ok {
			continue
		}
		pos := domain.DefaultLayerPos
		if l.X != nil {
			pos.X = *l.X
		}
		if l.Y != nil {
			pos.Y = *l.Y
		}
		comp.MoveLayer(id, pos.X, pos.Y)
	}
	return comp
}

// resolveRef makes relative file paths relative to baseDir. URLs and data URIs pass through.
func resolveRef(baseDir, ref string) string {
	ref = strings.TrimSpace(ref)
	if baseDir == "" || ref == "" || filepath.IsAbs(ref) || strings.Contains(ref, ":") {
		return ref
	}
	return filepath.Join(baseDir, ref)
}
