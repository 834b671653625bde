/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model of a business card composition.
// Coordinates are pixels in the card surface's local layout box, origin top-left.

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// BackgroundKind selects which background value is painted.
type BackgroundKind string

const (
	BackgroundColor BackgroundKind = "color"
	BackgroundImage BackgroundKind = "image"
)

// Valid reports whether k is a known kind.
func (k BackgroundKind) Valid() bool { return k == BackgroundColor || k == BackgroundImage }

// FontFamily is a rendering style selector for the text fields.
type FontFamily string

const (
	FontSans  FontFamily = "sans"
	FontSerif FontFamily = "serif"
	FontMono  FontFamily = "mono"
)

// Valid reports whether f is a known family.
func (f FontFamily) Valid() bool { return f == FontSans || f == FontSerif || f == FontMono }

// ColorHex is a CSS style hex colour such as "#bfdbfe".
type ColorHex string

// ImageRef points at image content: a file path, file:// or http(s):// URL, or a data: URI.
type ImageRef string

// LayerID identifies an image layer within one composition.
type LayerID string

// Point is a position in surface-local pixels.
type Point struct{ X, Y float64 }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Size is a width/height pair in surface-local pixels.
type Size struct{ W, H float64 }

// Background is a tagged variant. Both values are retained whichever kind is active.
type Background struct {
	Kind  BackgroundKind `json:"kind" yaml:"kind"`
	Color ColorHex       `json:"color" yaml:"color"`
	Image ImageRef       `json:"image,omitempty" yaml:"image,omitempty"`
}

// Fields are the free text lines printed on the card.
type Fields struct {
	Name    string `json:"name" yaml:"name"`
	Company string `json:"company" yaml:"company"`
	Email   string `json:"email" yaml:"email"`
}

// ImageLayer is a positionable image drawn over the background.
type ImageLayer struct {
	ID     LayerID  `json:"id" yaml:"id"`
	Source ImageRef `json:"source" yaml:"source"`
	X      float64  `json:"x" yaml:"x"`
	Y      float64  `json:"y" yaml:"y"`
}

// Pos returns the layer's top-left corner.
func (l ImageLayer) Pos() Point { return Point{X: l.X, Y: l.Y} }

// Contains reports whether pt falls inside the layer box of the given size.
func (l ImageLayer) Contains(pt Point, size Size) bool {
	return pt.X >= l.X && pt.Y >= l.Y && pt.X <= l.X+size.W && pt.Y <= l.Y+size.H
}

// ParseColorHex converts #rgb, #rrggbb or #rrggbbaa into an NRGBA colour.
func ParseColorHex(h ColorHex) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(string(h)), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}) + "ff"
	case 6:
		s += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", h)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", h, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
