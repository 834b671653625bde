/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and line-breaks the card's text fields.
// All measurement goes through a Provider so tests can use the fixed-width
// basicfont face and produce deterministic results.
package textlayout

import (
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font. SizePx and LineHeightPx are CSS pixels,
// Density scales them to device pixels.
type FontSpec struct {
	Family       string // sans, serif, mono
	SizePx       float64
	LineHeightPx float64
	Bold         bool
	Density      float64
}

// Metrics are device pixel metrics of a resolved face.
type Metrics struct {
	Ascent, Descent, LineGap int
}

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  m.Ascent.Ceil(),
		Descent: m.Descent.Ceil(),
		LineGap: m.Height.Ceil() - m.Ascent.Ceil() - m.Descent.Ceil(),
	}
}

// Line is one laid out line.
type Line struct {
	Text  string
	Width int
}

// Block is text broken into lines for a given width.
// Baseline(i) gives the y offset of line i's baseline from the block top.
type Block struct {
	Lines      []Line
	LineHeight int
	Ascent     int
	Descent    int
	Width      int
}

// Height is the total height of the block.
func (b Block) Height() int { return len(b.Lines) * b.LineHeight }

// Baseline places the glyph box in the middle of the line box, as CSS half-leading does.
func (b Block) Baseline(i int) int {
	half := (b.LineHeight - b.Ascent - b.Descent) / 2
	return i*b.LineHeight + half + b.Ascent
}

// WordWrap breaks text on spaces and newlines so lines fit maxWidth device
// pixels. A word longer than maxWidth keeps a line of its own. maxWidth <= 0
// disables wrapping.
func WordWrap(face font.Face, spec FontSpec, text string, maxWidth int) Block {
	m := metricsOf(face)
	lh := m.Ascent + m.Descent + m.LineGap
	if spec.LineHeightPx > 0 {
		d := spec.Density
		if d <= 0 {
			d = 1
		}
		lh = int(math.Round(spec.LineHeightPx * d))
	}
	b := Block{LineHeight: lh, Ascent: m.Ascent, Descent: m.Descent}
	limit := fixed.I(maxWidth)
	space := font.MeasureString(face, " ")

	for _, para := range strings.Split(text, "\n") {
		var cur strings.Builder
		var curW fixed.Int26_6
		flush := func() {
			w := curW.Ceil()
			b.Lines = append(b.Lines, Line{Text: cur.String(), Width: w})
			if w > b.Width {
				b.Width = w
			}
			cur.Reset()
			curW = 0
		}
		for _, word := range strings.Fields(para) {
			ww := font.MeasureString(face, word)
			if cur.Len() > 0 {
				if maxWidth > 0 && curW+space+ww > limit {
					flush()
				} else {
					cur.WriteByte(' ')
					curW += space
				}
			}
			cur.WriteString(word)
			curW += ww
		}
		flush()
	}
	return b
}

// Measure returns the unwrapped advance width of s in device pixels.
func Measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
