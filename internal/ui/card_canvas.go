//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gobizcard/internal/domain"
	"gobizcard/internal/editor"
	applog "gobizcard/internal/log"
	"gobizcard/internal/surface"
)

// cardMargin is the empty border around the card inside the widget.
const cardMargin = 24

// CardCanvas shows the card raster and forwards mouse input to the drag controller.
type CardCanvas struct {
	widget.BaseWidget
	session *editor.Session
	raster  *canvas.Image
	log     *slog.Logger

	requests chan struct{}
}

var (
	_ desktop.Mouseable = (*CardCanvas)(nil)
	_ desktop.Hoverable = (*CardCanvas)(nil)
)

// NewCardCanvas creates the widget and its background render worker.
func NewCardCanvas(s *editor.Session) *CardCanvas {
	c := &CardCanvas{
		session:  s,
		raster:   canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, surface.Width, surface.Height))),
		log:      applog.WithComponent("ui"),
		requests: make(chan struct{}, 1),
	}
	c.raster.FillMode = canvas.ImageFillStretch
	c.raster.ScaleMode = canvas.ImageScaleSmooth
	s.Controller().OnChange(c.layerMoved)
	c.ExtendBaseWidget(c)
	go c.renderLoop()
	return c
}

// layerMoved is the controller's change hook.
func (c *CardCanvas) layerMoved(domain.LayerID) { c.Render() }

// Rebind attaches the controller of a replaced composition and redraws.
func (c *CardCanvas) Rebind(comp *domain.Composition) {
	c.session.Replace(comp, c.layerMoved)
	c.Render()
}

// Scale returns the display scale of the canvas the widget lives on.
func (c *CardCanvas) Scale() float64 {
	if app := fyne.CurrentApp(); app != nil {
		if cv := app.Driver().CanvasForObject(c); cv != nil && cv.Scale() > 0 {
			return float64(cv.Scale())
		}
	}
	return 1
}

// Render schedules a redraw. Requests made while one is pending are merged.
func (c *CardCanvas) Render() {
	select {
	case c.requests <- struct{}{}:
	default:
	}
}

func (c *CardCanvas) renderLoop() {
	for range c.requests {
		img, err := c.RenderNow()
		if err != nil {
			continue
		}
		fyne.Do(func() {
			c.raster.Image = img
			c.raster.Refresh()
		})
	}
}

// RenderNow captures the card at the display scale.
func (c *CardCanvas) RenderNow() (image.Image, error) {
	img, err := c.session.Card.Capture(context.Background(), c.Scale())
	if err != nil {
		c.log.Debug("render skipped", slog.Any("err", err))
		return nil, err
	}
	return img, nil
}

// origin is the card's top-left corner in widget coordinates.
func (c *CardCanvas) origin() fyne.Position {
	sz := c.Size()
	x := (sz.Width - surface.Width) / 2
	y := (sz.Height - surface.Height) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return fyne.NewPos(x, y)
}

// toCard maps a widget position into card layout pixels.
func (c *CardCanvas) toCard(pos fyne.Position) domain.Point {
	o := c.origin()
	return domain.Point{X: float64(pos.X - o.X), Y: float64(pos.Y - o.Y)}
}

func (c *CardCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.session.Press(c.toCard(ev.Position))
}

func (c *CardCanvas) MouseUp(*desktop.MouseEvent) { c.session.Release() }

func (c *CardCanvas) MouseIn(*desktop.MouseEvent) {}

func (c *CardCanvas) MouseMoved(ev *desktop.MouseEvent) {
	c.session.Drag(c.toCard(ev.Position))
}

func (c *CardCanvas) MouseOut() { c.session.Leave() }

// MinSize leaves room for the card and its margin.
func (c *CardCanvas) MinSize() fyne.Size {
	return fyne.NewSize(surface.Width+2*cardMargin, surface.Height+2*cardMargin)
}

func (c *CardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 243, G: 244, B: 246, A: 255})
	shadow := canvas.NewRectangle(color.RGBA{A: 40})
	shadow.CornerRadius = surface.Radius
	return &cardCanvasRenderer{cc: c, bg: bg, shadow: shadow, objects: []fyne.CanvasObject{bg, shadow, c.raster}}
}

type cardCanvasRenderer struct {
	cc      *CardCanvas
	bg      *canvas.Rectangle
	shadow  *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *cardCanvasRenderer) Destroy()                     {}
func (r *cardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *cardCanvasRenderer) MinSize() fyne.Size           { return r.cc.MinSize() }
func (r *cardCanvasRenderer) Refresh()                     { r.Layout(r.cc.Size()); canvas.Refresh(r.cc) }

func (r *cardCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	o := r.cc.origin()
	card := fyne.NewSize(surface.Width, surface.Height)
	r.shadow.Resize(card)
	r.shadow.Move(o.Add(fyne.NewPos(0, 4)))
	r.cc.raster.Resize(card)
	r.cc.raster.Move(o)
}
