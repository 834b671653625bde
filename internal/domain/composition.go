/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultLayerPos is where new layers appear, clear of the card's top-left corner.
var DefaultLayerPos = Point{X: 10, Y: 10}

// Composition holds everything that describes one card for the lifetime of an editing session.
// Methods are safe for concurrent use; capture works on a Snapshot.
type Composition struct {
	mu         sync.RWMutex
	background Background
	fields     Fields
	font       FontFamily
	layers     []ImageLayer
}

// NewComposition returns a composition with the editor's starting values.
func NewComposition() *Composition {
	return &Composition{
		background: Background{Kind: BackgroundColor, Color: "#ffffff"},
		fields: Fields{
			Name:    "Your Name",
			Company: "Company / Position",
			Email:   "example@example.com",
		},
		font: FontSans,
	}
}

// SetBackgroundColor stores the colour value. The active kind is left alone.
func (c *Composition) SetBackgroundColor(hex ColorHex) {
	c.mu.Lock()
	c.background.Color = hex
	c.mu.Unlock()
}

// SetBackgroundImage stores the image value. The active kind is left alone.
func (c *Composition) SetBackgroundImage(ref ImageRef) {
	c.mu.Lock()
	c.background.Image = ref
	c.mu.Unlock()
}

// SetBackgroundKind switches the active background. Unknown kinds are ignored.
func (c *Composition) SetBackgroundKind(kind BackgroundKind) {
	if !kind.Valid() {
		return
	}
	c.mu.Lock()
	c.background.Kind = kind
	c.mu.Unlock()
}

func (c *Composition) SetName(v string) {
	c.mu.Lock()
	c.fields.Name = v
	c.mu.Unlock()
}

func (c *Composition) SetCompany(v string) {
	c.mu.Lock()
	c.fields.Company = v
	c.mu.Unlock()
}

func (c *Composition) SetEmail(v string) {
	c.mu.Lock()
	c.fields.Email = v
	c.mu.Unlock()
}

// SetFont selects the font family; unknown families are ignored.
func (c *Composition) SetFont(f FontFamily) {
	if !f.Valid() {
		return
	}
	c.mu.Lock()
	c.font = f
	c.mu.Unlock()
}

// AddLayer appends a layer at DefaultLayerPos on top of the existing ones.
// An empty source is ignored and reported with ok=false.
func (c *Composition) AddLayer(src ImageRef) (LayerID, bool) {
	if src == "" {
		return "", false
	}
	id := LayerID(uuid.NewString())
	c.mu.Lock()
	c.layers = append(c.layers, ImageLayer{ID: id, Source: src, X: DefaultLayerPos.X, Y: DefaultLayerPos.Y})
	c.mu.Unlock()
	return id, true
}

// MoveLayer replaces the position of layer id. Unknown ids are ignored.
func (c *Composition) MoveLayer(id LayerID, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	l := c.layers[i]
	l.X, l.Y = x, y
	c.layers[i] = l
	return true
}

// Layer returns a copy of the layer with the given id.
func (c *Composition) Layer(id LayerID) (ImageLayer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return ImageLayer{}, false
	}
	return c.layers[i], true
}

// Layers returns the layers in z-order (bottom first).
func (c *Composition) Layers() []ImageLayer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ImageLayer(nil), c.layers...)
}

// LayerAt returns the top-most layer whose box of the given size contains pt.
func (c *Composition) LayerAt(pt Point, size Size) (ImageLayer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.layers) - 1; i >= 0; i-- {
		if c.layers[i].Contains(pt, size) {
			return c.layers[i], true
		}
	}
	return ImageLayer{}, false
}

func (c *Composition) Background() Background {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.background
}

func (c *Composition) Fields() Fields {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fields
}

func (c *Composition) Font() FontFamily {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.font
}

// Snapshot is an immutable copy of a composition at one instant.
type Snapshot struct {
	Background Background
	Fields     Fields
	Font       FontFamily
	Layers     []ImageLayer
}

// Snapshot copies the current state under a single read lock.
func (c *Composition) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Background: c.background,
		Fields:     c.fields,
		Font:       c.font,
		Layers:     append([]ImageLayer(nil), c.layers...),
	}
}

// indexOf expects c.mu to be held.
func (c *Composition) indexOf(id LayerID) int {
	for i := range c.layers {
		if c.layers[i].ID == id {
			return i
		}
	}
	return -1
}
