/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact turns pointer events into layer moves.
//
// The controller is a two state machine:
//
//	Idle --PointerDown(layer)--> Dragging --PointerUp/PointerLeave--> Idle
//
// While Dragging, every PointerMove places the active layer at
// pointer - offset, where offset was captured at PointerDown. The layer
// therefore follows the pointer without its corner snapping to it. There is
// no clamping: layers may leave the card.
package interact

import (
	"log/slog"

	"gobizcard/internal/domain"
	applog "gobizcard/internal/log"
)

// Model is the subset of the layout model the controller needs.
type Model interface {
	Layer(id domain.LayerID) (domain.ImageLayer, bool)
	MoveLayer(id domain.LayerID, x, y float64) bool
	LayerAt(pt domain.Point, size domain.Size) (domain.ImageLayer, bool)
}

// State is the drag lifecycle state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// session exists only while Dragging.
type session struct {
	layer  domain.LayerID
	offset domain.Point
}

// Controller owns the single drag session. It is meant to be driven from one
// event loop; it does no locking of its own.
type Controller struct {
	model   Model
	drag    *session
	log     *slog.Logger
	changed func(domain.LayerID)
}

// NewController binds a controller to a model.
func NewController(m Model) *Controller {
	return &Controller{model: m, log: applog.WithComponent("interact")}
}

// OnChange registers a callback run after each applied move, typically a re-render.
func (c *Controller) OnChange(fn func(domain.LayerID)) { c.changed = fn }

// State reports the current state.
func (c *Controller) State() State {
	if c.drag == nil {
		return Idle
	}
	return Dragging
}

// Active returns the dragged layer, if any.
func (c *Controller) Active() (domain.LayerID, bool) {
	if c.drag == nil {
		return "", false
	}
	return c.drag.layer, true
}

// PointerDown starts dragging layer id, grabbed at pointer position p.
// A pointer-down during an existing drag replaces it. Unknown ids are ignored.
func (c *Controller) PointerDown(id domain.LayerID, p domain.Point) bool {
	l, ok := c.model.Layer(id)
	if !ok {
		c.log.Debug("pointer down on unknown layer", slog.String("layer", string(id)))
		return false
	}
	c.drag = &session{layer: id, offset: p.Sub(l.Pos())}
	return true
}

// PointerDownAt hit-tests p against layers of the given box size and starts a
// drag on the top-most hit.
func (c *Controller) PointerDownAt(p domain.Point, size domain.Size) bool {
	l, ok := c.model.LayerAt(p, size)
	if !ok {
		return false
	}
	return c.PointerDown(l.ID, p)
}

// PointerMove moves the active layer so it keeps its grab offset. It is a
// no-op when Idle.
func (c *Controller) PointerMove(p domain.Point) bool {
	if c.drag == nil {
		return false
	}
	pos := p.Sub(c.drag.offset)
	if !c.model.MoveLayer(c.drag.layer, pos.X, pos.Y) {
		// layer vanished under us; end the session rather than keep failing
		c.drag = nil
		return false
	}
	if c.changed != nil {
		c.changed(c.drag.layer)
	}
	return true
}

// PointerUp ends any drag, wherever the pointer is.
func (c *Controller) PointerUp() { c.drag = nil }

// PointerLeave ends any drag when the pointer leaves the editing area.
func (c *Controller) PointerLeave() { c.drag = nil }
