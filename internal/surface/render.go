/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"gobizcard/internal/domain"
	"gobizcard/internal/textlayout"
)

// Text styles of the three card fields, in layout pixels.
var (
	nameStyle    = textStyle{size: 20, lineHeight: 28, bold: true, color: "#111827"}
	companyStyle = textStyle{size: 16, lineHeight: 24, color: "#374151"}
	emailStyle   = textStyle{size: 12, lineHeight: 18, color: "#4b5563"}
)

type textStyle struct {
	size, lineHeight float64
	bold             bool
	color            domain.ColorHex
}

type renderer struct {
	ctx     context.Context
	density float64
	images  ImageSource
	fonts   textlayout.Provider
	log     *slog.Logger
}

func (r *renderer) px(v float64) int { return int(math.Round(v * r.density)) }

func (r *renderer) render(snap domain.Snapshot) (*image.RGBA, error) {
	size := PixelSize(r.density)
	dst := image.NewRGBA(image.Rectangle{Max: size})

	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	r.background(dst, snap.Background)
	r.fields(dst, snap.Fields, snap.Font)
	for _, l := range snap.Layers {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		r.layer(dst, l)
	}
	roundCorners(dst, Radius*r.density)
	return dst, nil
}

func (r *renderer) background(dst *image.RGBA, bg domain.Background) {
	switch bg.Kind {
	case domain.BackgroundImage:
		src := r.load(string(bg.Image))
		if src == nil {
			return
		}
		// cover, anchored top-left
		sb := src.Bounds()
		b := dst.Bounds()
		scale := math.Max(float64(b.Dx())/float64(sb.Dx()), float64(b.Dy())/float64(sb.Dy()))
		dr := image.Rect(0, 0, int(math.Ceil(float64(sb.Dx())*scale)), int(math.Ceil(float64(sb.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dr, src, sb, draw.Over, nil)
	default:
		c, err := domain.ParseColorHex(bg.Color)
		if err != nil {
			r.log.Warn("background colour ignored", slog.String("color", string(bg.Color)), slog.Any("err", err))
			return
		}
		draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

// fields lays out name and company from the top and email against the bottom padding edge.
func (r *renderer) fields(dst *image.RGBA, f domain.Fields, family domain.FontFamily) {
	left := r.px(Padding)
	maxW := r.px(Width - 2*Padding)
	top := r.px(Padding)
	top += r.text(dst, f.Name, nameStyle, family, left, top, maxW, false)
	r.text(dst, f.Company, companyStyle, family, left, top, maxW, false)
	r.text(dst, f.Email, emailStyle, family, left, r.px(Height-Padding), maxW, true)
}

// text draws s and returns the block height. With fromBottom, y is the block's bottom edge.
func (r *renderer) text(dst *image.RGBA, s string, st textStyle, family domain.FontFamily, x, y, maxW int, fromBottom bool) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	spec := textlayout.FontSpec{Family: string(family), SizePx: st.size, LineHeightPx: st.lineHeight, Bold: st.bold, Density: r.density}
	face, _ := r.fonts.Resolve(spec)
	defer face.Close()
	block := textlayout.WordWrap(face, spec, s, maxW)
	if fromBottom {
		y -= block.Height()
	}
	col, err := domain.ParseColorHex(st.color)
	if err != nil {
		col = color.NRGBA{A: 255}
	}
	d := font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for i, line := range block.Lines {
		d.Dot = fixed.P(x, y+block.Baseline(i))
		d.DrawString(line.Text)
	}
	return block.Height()
}

func (r *renderer) layer(dst *image.RGBA, l domain.ImageLayer) {
	src := r.load(string(l.Source))
	if src == nil {
		return
	}
	dr := image.Rect(r.px(l.X), r.px(l.Y), r.px(l.X+LayerSide), r.px(l.Y+LayerSide))
	draw.CatmullRom.Scale(dst, dr, src, src.Bounds(), draw.Over, nil)
}

// load returns nil when the image cannot be used; the failure is logged.
func (r *renderer) load(ref string) image.Image {
	if r.images == nil {
		r.log.Warn("image skipped, no loader configured", slog.String("ref", shortRef(ref)))
		return nil
	}
	img, err := r.images.Load(r.ctx, ref)
	if err != nil {
		r.log.Warn("image left blank", slog.String("ref", shortRef(ref)), slog.Any("err", err))
		return nil
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	return img
}

// shortRef trims long refs, such as data URIs, for log attributes.
func shortRef(ref string) string {
	const limit = 96
	if len(ref) <= limit {
		return ref
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(ref[cut]) {
		cut--
	}
	return ref[:cut] + "…"
}

// roundCorners clears the four corners outside a circle of radius rad with
// one pixel of antialiasing. img holds premultiplied colour so all channels scale together.
func roundCorners(img *image.RGBA, rad float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := int(math.Ceil(rad))
	if n <= 0 || 2*n > w || 2*n > h {
		return
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx := rad - (float64(x) + 0.5)
			dy := rad - (float64(y) + 0.5)
			cov := rad - math.Hypot(dx, dy) + 0.5
			if cov >= 1 {
				continue
			}
			if cov < 0 {
				cov = 0
			}
			for _, p := range [4]image.Point{{x, y}, {w - 1 - x, y}, {x, h - 1 - y}, {w - 1 - x, h - 1 - y}} {
				i := img.PixOffset(b.Min.X+p.X, b.Min.Y+p.Y)
				for k := 0; k < 4; k++ {
					img.Pix[i+k] = uint8(math.Round(float64(img.Pix[i+k]) * cov))
				}
			}
		}
	}
}
