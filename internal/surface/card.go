/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package surface rasterizes a card composition into a bitmap.
//
// The card box is 320x192 layout pixels. A capture at density d produces a
// bitmap of round(320*d) x round(192*d) device pixels; everything outside the
// box is clipped.
package surface

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"sync"

	"gobizcard/internal/domain"
	applog "gobizcard/internal/log"
	"gobizcard/internal/textlayout"
)

// Card box geometry in layout pixels.
const (
	Width     = 320
	Height    = 192
	Padding   = 16
	Radius    = 8
	LayerSide = 64

	// CardWidthMM is the physical width the card box maps to when printed.
	CardWidthMM = 91.0
)

// LayerSize is the box every image layer is stretched into.
var LayerSize = domain.Size{W: LayerSide, H: LayerSide}

// ErrNotMounted is returned by Capture before Mount or after Unmount.
var ErrNotMounted = errors.New("surface not mounted")

// Surface is anything that can be captured into a raster.
type Surface interface {
	Capture(ctx context.Context, density float64) (image.Image, error)
}

// Mountable reports whether a surface currently has something to capture.
type Mountable interface {
	Mounted() bool
}

// ImageSource resolves image references. *assets.Loader satisfies it.
type ImageSource interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// DensityForDPI returns the density at which the 320px card box spans 91mm at dpi.
func DensityForDPI(dpi float64) float64 {
	return dpi * CardWidthMM / 25.4 / Width
}

// NormalizeDensity replaces unusable densities with the 300 dpi print density.
func NormalizeDensity(d float64) float64 {
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return DensityForDPI(300)
	}
	return d
}

// PixelSize returns the bitmap size of a capture at density d.
func PixelSize(d float64) image.Point {
	d = NormalizeDensity(d)
	return image.Pt(int(math.Round(Width*d)), int(math.Round(Height*d)))
}

// Card is the concrete card surface.
type Card struct {
	images ImageSource
	fonts  textlayout.Provider
	log    *slog.Logger

	mu   sync.RWMutex
	comp *domain.Composition
}

// NewCard creates an unmounted card. A nil fonts provider uses the built-in Go fonts.
func NewCard(images ImageSource, fonts textlayout.Provider) *Card {
	if fonts == nil {
		fonts = textlayout.GoFontProvider{}
	}
	return &Card{images: images, fonts: fonts, log: applog.WithComponent("surface")}
}

// Mount attaches a composition; a later Mount replaces it.
func (c *Card) Mount(comp *domain.Composition) {
	c.mu.Lock()
	c.comp = comp
	c.mu.Unlock()
}

func (c *Card) Unmount() {
	c.mu.Lock()
	c.comp = nil
	c.mu.Unlock()
}

func (c *Card) Mounted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.comp != nil
}

// Composition returns the mounted composition or nil.
func (c *Card) Composition() *domain.Composition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.comp
}

// Capture snapshots the mounted composition and rasterizes it at density.
// Image load failures leave their region blank and never fail the capture.
func (c *Card) Capture(ctx context.Context, density float64) (image.Image, error) {
	comp := c.Composition()
	if comp == nil {
		return nil, ErrNotMounted
	}
	snap := comp.Snapshot()
	d := NormalizeDensity(density)
	l := applog.WithOperation(c.log, "capture")
	l.Debug("capture start", slog.Float64("density", d), slog.Int("layers", len(snap.Layers)))

	r := &renderer{ctx: ctx, density: d, images: c.images, fonts: c.fonts, log: l}
	img, err := r.render(snap)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	l.Debug("capture done", slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
	return img, nil
}

// LayerCount reports the number of layers of the mounted composition.
func (c *Card) LayerCount() int {
	comp := c.Composition()
	if comp == nil {
		return 0
	}
	return len(comp.Layers())
}
