/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores user supplied OpenType fonts keyed by family and weight.
// Safe for concurrent reads after loading.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file for the given family. The same file may be
// registered for both weights; a missing bold face falls back to regular.
func (fl *FontLibrary) LoadTTF(family string, bold bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.mu.Lock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, bold: bold}] = f
	fl.mu.Unlock()
	return nil
}

func (fl *FontLibrary) find(family string, bold bool) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if f, ok := fl.fonts[fontKey{family: family, bold: bold}]; ok {
		return f
	}
	if f, ok := fl.fonts[fontKey{family: family, bold: !bold}]; ok {
		return f
	}
	return nil
}

var (
	builtinOnce sync.Once
	builtin     map[fontKey]*opentype.Font
	builtinErr  error
)

// builtinFonts parses the embedded Go fonts once. Serif has no Go font and
// shares the sans faces unless a library font is configured.
func builtinFonts() (map[fontKey]*opentype.Font, error) {
	builtinOnce.Do(func() {
		src := map[fontKey][]byte{
			{family: "sans", bold: false}: goregular.TTF,
			{family: "sans", bold: true}:  gobold.TTF,
			{family: "mono", bold: false}: gomono.TTF,
			{family: "mono", bold: true}:  gomonobold.TTF,
		}
		builtin = make(map[fontKey]*opentype.Font, len(src)+2)
		for k, ttf := range src {
			f, err := opentype.Parse(ttf)
			if err != nil {
				builtinErr = fmt.Errorf("parse builtin %s: %w", k.family, err)
				return
			}
			builtin[k] = f
		}
		builtin[fontKey{family: "serif"}] = builtin[fontKey{family: "sans"}]
		builtin[fontKey{family: "serif", bold: true}] = builtin[fontKey{family: "sans", bold: true}]
	})
	return builtin, builtinErr
}

// GoFontProvider resolves specs against Lib first and then the embedded Go fonts.
// Faces returned by Resolve are new per call and must not be shared across goroutines.
type GoFontProvider struct {
	Lib      *FontLibrary
	Fallback Provider
}

func (p GoFontProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePx <= 0 {
		spec.SizePx = 16
	}
	density := spec.Density
	if density <= 0 {
		density = 1
	}
	f := p.Lib.find(spec.Family, spec.Bold)
	if f == nil {
		if fonts, err := builtinFonts(); err == nil {
			f = fonts[fontKey{family: spec.Family, bold: spec.Bold}]
			if f == nil {
				f = fonts[fontKey{family: "sans", bold: spec.Bold}]
			}
		}
	}
	if f != nil {
		// Size in px at 72 DPI maps one point to one device pixel.
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePx * density, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

// LoadFamilies registers one TTF per family from a family to path map.
// Empty paths are skipped; the file serves both weights.
func (fl *FontLibrary) LoadFamilies(paths map[string]string) error {
	for family, path := range paths {
		if path == "" {
			continue
		}
		if err := fl.LoadTTF(family, false, path); err != nil {
			return err
		}
	}
	return nil
}
