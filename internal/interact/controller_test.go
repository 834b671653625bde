/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"testing"

	"gobizcard/internal/domain"
)

var box = domain.Size{W: 64, H: 64}

func pos(t *testing.T, c *domain.Composition, id domain.LayerID) domain.Point {
	t.Helper()
	l, ok := c.Layer(id)
	if !ok {
		t.Fatalf("layer %s missing", id)
	}
	return l.Pos()
}

func TestDragOffsetInvariance(t *testing.T) {
	grabs := []domain.Point{{X: 10, Y: 10}, {X: 42, Y: 17}, {X: 73, Y: 73}}
	for _, grab := range grabs {
		comp := domain.NewComposition()
		id, _ := comp.AddLayer("logo.png")
		ctl := NewController(comp)

		if !ctl.PointerDown(id, grab) {
			t.Fatalf("PointerDown rejected")
		}
		ctl.PointerMove(domain.Point{X: grab.X + 25, Y: grab.Y - 7})
		if got := pos(t, comp, id); got != (domain.Point{X: 35, Y: 3}) {
			t.Fatalf("grab %v: layer at %v, want (35,3)", grab, got)
		}
		ctl.PointerMove(domain.Point{X: grab.X - 100, Y: grab.Y + 300})
		if got := pos(t, comp, id); got != (domain.Point{X: -90, Y: 310}) {
			t.Fatalf("grab %v: layer at %v, want (-90,310)", grab, got)
		}
	}
}

func TestSingleActiveDrag_LastPointerDownWins(t *testing.T) {
	comp := domain.NewComposition()
	first, _ := comp.AddLayer("a.png")
	second, _ := comp.AddLayer("b.png")
	ctl := NewController(comp)

	ctl.PointerDown(first, domain.Point{X: 20, Y: 20})
	ctl.PointerDown(second, domain.Point{X: 30, Y: 30})
	if id, _ := ctl.Active(); id != second {
		t.Fatalf("active = %s, want second layer", id)
	}
	ctl.PointerMove(domain.Point{X: 60, Y: 50})

	if got := pos(t, comp, first); got != (domain.Point{X: 10, Y: 10}) {
		t.Fatalf("first layer moved to %v", got)
	}
	if got := pos(t, comp, second); got != (domain.Point{X: 40, Y: 30}) {
		t.Fatalf("second layer at %v, want (40,30)", got)
	}
}

func TestIdleOnReleaseAnywhere(t *testing.T) {
	comp := domain.NewComposition()
	id, _ := comp.AddLayer("a.png")
	ctl := NewController(comp)

	ctl.PointerDown(id, domain.Point{X: 15, Y: 15})
	ctl.PointerMove(domain.Point{X: 5000, Y: -5000})
	ctl.PointerUp()
	if ctl.State() != Idle {
		t.Fatalf("state = %v after PointerUp", ctl.State())
	}
	before := pos(t, comp, id)
	if ctl.PointerMove(domain.Point{X: 1, Y: 1}) {
		t.Fatalf("move applied while idle")
	}
	if got := pos(t, comp, id); got != before {
		t.Fatalf("layer moved while idle: %v -> %v", before, got)
	}
}

func TestPointerLeaveEndsDrag(t *testing.T) {
	comp := domain.NewComposition()
	id, _ := comp.AddLayer("a.png")
	ctl := NewController(comp)
	ctl.PointerDown(id, domain.Point{X: 15, Y: 15})
	ctl.PointerLeave()
	if ctl.State() != Idle {
		t.Fatalf("state = %v after PointerLeave", ctl.State())
	}
	ctl.PointerUp() // idempotent
	if _, ok := ctl.Active(); ok {
		t.Fatalf("no active layer expected")
	}
}

func TestMoveWithoutPriorDownIsNoop(t *testing.T) {
	comp := domain.NewComposition()
	id, _ := comp.AddLayer("a.png")
	ctl := NewController(comp)
	ctl.PointerMove(domain.Point{X: 300, Y: 300})
	if got := pos(t, comp, id); got != domain.DefaultLayerPos {
		t.Fatalf("layer moved without drag: %v", got)
	}
}

func TestPointerDownUnknownLayerKeepsState(t *testing.T) {
	comp := domain.NewComposition()
	ctl := NewController(comp)
	if ctl.PointerDown("nope", domain.Point{}) {
		t.Fatalf("unknown layer accepted")
	}
	if ctl.State() != Idle {
		t.Fatalf("state changed on unknown layer")
	}
}

func TestPointerDownAt_HitTestsTopMost(t *testing.T) {
	comp := domain.NewComposition()
	_, _ = comp.AddLayer("a.png")
	top, _ := comp.AddLayer("b.png")
	ctl := NewController(comp)
	var changed []domain.LayerID
	ctl.OnChange(func(id domain.LayerID) { changed = append(changed, id) })

	if ctl.PointerDownAt(domain.Point{X: 200, Y: 150}, box) {
		t.Fatalf("miss should not start a drag")
	}
	if !ctl.PointerDownAt(domain.Point{X: 30, Y: 30}, box) {
		t.Fatalf("hit expected")
	}
	if id, _ := ctl.Active(); id != top {
		t.Fatalf("active = %s, want top layer", id)
	}
	ctl.PointerMove(domain.Point{X: 31, Y: 30})
	if len(changed) != 1 || changed[0] != top {
		t.Fatalf("OnChange calls = %v", changed)
	}
}

type vanishing struct{ *domain.Composition }

func (v vanishing) MoveLayer(domain.LayerID, float64, float64) bool { return false }

func TestVanishedLayerEndsDrag(t *testing.T) {
	comp := domain.NewComposition()
	id, _ := comp.AddLayer("a.png")
	ctl := NewController(vanishing{comp})
	ctl.PointerDown(id, domain.Point{X: 12, Y: 12})
	if ctl.PointerMove(domain.Point{X: 40, Y: 40}) {
		t.Fatalf("move against vanished layer reported success")
	}
	if ctl.State() != Idle {
		t.Fatalf("drag should end when its layer is gone")
	}
}
