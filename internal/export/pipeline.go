/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns a captured card surface into the business card PDF.
//
// The pipeline has three stages: Capture (the only one that waits on I/O),
// Embed (gofpdf, one page, one full-bleed PNG raster) and Persist (a Saver).
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	applog "gobizcard/internal/log"
	"gobizcard/internal/surface"
)

// DefaultFilename is the name the PDF is saved under.
const DefaultFilename = "business-card.pdf"

// Entry describes one successful export for a Recorder.
type Entry struct {
	Time    time.Time
	Path    string
	Bytes   int
	Pages   int
	Density float64
	Layers  int
	SHA256  string
}

// Recorder receives an Entry after every saved export.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Result reports what an Export did. Skipped is set when nothing was mounted.
type Result struct {
	Skipped  bool
	Path     string
	PNGPath  string
	Density  float64
	Document Document
}

// layerCounter is implemented by surfaces that know their layer count.
type layerCounter interface {
	LayerCount() int
}

// Pipeline wires a surface to a saver. Zero values fall back to the card
// geometry, DefaultFilename, time.Now and the 300 dpi density.
type Pipeline struct {
	Surface  surface.Surface
	Density  func() float64
	Saver    Saver
	Clock    func() time.Time
	Geometry Geometry
	Filename string
	Recorder Recorder
	// WritePNG also saves the embedded raster next to the PDF.
	WritePNG bool
	// OnDone, if set, is called after each Trigger run.
	OnDone func(Result, error)

	log *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.log == nil {
		p.log = applog.WithComponent("export")
	}
	return p.log
}

func (p *Pipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// density reads the density source exactly once.
func (p *Pipeline) density() float64 {
	var d float64
	if p.Density != nil {
		d = p.Density()
	}
	return surface.NormalizeDensity(d)
}

// Capture is stage one: rasterize the surface at the current density.
func (p *Pipeline) Capture(ctx context.Context) (image.Image, error) {
	img, _, err := p.capture(ctx)
	return img, err
}

func (p *Pipeline) capture(ctx context.Context) (image.Image, float64, error) {
	if p.Surface == nil {
		return nil, 0, surface.ErrNotMounted
	}
	d := p.density()
	img, err := p.Surface.Capture(ctx, d)
	if err != nil {
		return nil, d, fmt.Errorf("capture: %w", err)
	}
	return img, d, nil
}

// Embed is stage two: place img on the single PDF page.
func (p *Pipeline) Embed(img image.Image) (Document, error) {
	g := p.Geometry
	if g.WidthMM <= 0 || g.HeightMM <= 0 {
		g = CardGeometry
	}
	return EmbedRaster(img, g, p.now())
}

// Persist is stage three: hand the document to the saver.
func (p *Pipeline) Persist(doc Document) (string, error) {
	if p.Saver == nil {
		return "", errors.New("persist: no saver configured")
	}
	name := p.Filename
	if strings.TrimSpace(name) == "" {
		name = DefaultFilename
	}
	path, err := p.Saver.Save(name, doc.Bytes)
	if err != nil {
		return "", fmt.Errorf("persist: %w", err)
	}
	return path, nil
}

// Export runs all stages. An unmounted surface is not an error: the call is
// skipped and reported through Result.Skipped.
func (p *Pipeline) Export(ctx context.Context) (Result, error) {
	l := applog.WithOperation(p.logger(), "export")
	if m, ok := p.Surface.(surface.Mountable); p.Surface == nil || (ok && !m.Mounted()) {
		l.Debug("export skipped, surface not mounted")
		return Result{Skipped: true}, nil
	}
	start := time.Now()
	img, d, err := p.capture(ctx)
	if errors.Is(err, surface.ErrNotMounted) {
		l.Debug("export skipped, surface unmounted during capture")
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return Result{}, err
	}
	doc, err := p.Embed(img)
	if err != nil {
		return Result{}, err
	}
	path, err := p.Persist(doc)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: path, Density: d, Document: doc}
	if p.WritePNG {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
		if res.PNGPath, err = p.Saver.Save(name, doc.PNG); err != nil {
			return res, fmt.Errorf("persist png: %w", err)
		}
	}
	l.Info("business card exported",
		slog.String("path", path),
		slog.Int("bytes", len(doc.Bytes)),
		slog.Float64("density", d),
		slog.Duration("took", time.Since(start)))
	p.record(ctx, res)
	return res, nil
}

func (p *Pipeline) record(ctx context.Context, res Result) {
	if p.Recorder == nil {
		return
	}
	sum := sha256.Sum256(res.Document.Bytes)
	e := Entry{
		Time:    p.now(),
		Path:    res.Path,
		Bytes:   len(res.Document.Bytes),
		Pages:   res.Document.PageCount,
		Density: res.Density,
		SHA256:  hex.EncodeToString(sum[:]),
	}
	if lc, ok := p.Surface.(layerCounter); ok {
		e.Layers = lc.LayerCount()
	}
	if err := p.Recorder.Record(ctx, e); err != nil {
		p.logger().Warn("export history not updated", slog.Any("err", err))
	}
}

// Trigger returns a zero-argument action suitable for a button. Each call
// starts an Export on its own goroutine with a background context; failures
// are logged and passed to OnDone.
func (p *Pipeline) Trigger() func() {
	return func() {
		go func() {
			res, err := p.Export(context.Background())
			if err != nil {
				p.logger().Error("export failed", slog.Any("err", err))
			}
			if p.OnDone != nil {
				p.OnDone(res, err)
			}
		}()
	}
}
