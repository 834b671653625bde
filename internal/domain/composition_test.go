/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"image/color"
	"sync"
	"testing"
)

func TestNewComposition_Defaults(t *testing.T) {
	c := NewComposition()
	bg := c.Background()
	if bg.Kind != BackgroundColor || bg.Color != "#ffffff" || bg.Image != "" {
		t.Fatalf("unexpected background: %+v", bg)
	}
	if f := c.Fields(); f.Name != "Your Name" || f.Company != "Company / Position" || f.Email != "example@example.com" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if c.Font() != FontSans || len(c.Layers()) != 0 {
		t.Fatalf("unexpected font/layers")
	}
}

func TestBackgroundKindIndependence(t *testing.T) {
	c := NewComposition()
	c.SetBackgroundImage("bg.png")
	c.SetBackgroundKind(BackgroundImage)

	c.SetBackgroundColor("#bfdbfe")
	if bg := c.Background(); bg.Kind != BackgroundImage {
		t.Fatalf("setting colour changed kind to %q", bg.Kind)
	}

	c.SetBackgroundKind(BackgroundColor)
	bg := c.Background()
	if bg.Kind != BackgroundColor || bg.Color != "#bfdbfe" {
		t.Fatalf("colour not retained across kind switch: %+v", bg)
	}
	if bg.Image != "bg.png" {
		t.Fatalf("image discarded when switching kind: %+v", bg)
	}

	c.SetBackgroundKind("gradient")
	if c.Background().Kind != BackgroundColor {
		t.Fatalf("unknown kind must be ignored")
	}
}

func TestAddLayer_DefaultPlacement(t *testing.T) {
	c := NewComposition()
	id, ok := c.AddLayer("x.png")
	if !ok || id == "" {
		t.Fatalf("AddLayer returned %q, %v", id, ok)
	}
	ls := c.Layers()
	if len(ls) != 1 || ls[0].X != 10 || ls[0].Y != 10 || ls[0].Source != "x.png" {
		t.Fatalf("unexpected layers: %+v", ls)
	}

	if _, ok := c.AddLayer(""); ok {
		t.Fatalf("AddLayer(\"\") should be a no-op")
	}
	if len(c.Layers()) != 1 {
		t.Fatalf("empty source created a layer")
	}
}

func TestAddLayer_KeepsNonEmptySourceVerbatim(t *testing.T) {
	c := NewComposition()
	if _, ok := c.AddLayer(" "); !ok {
		t.Fatalf("a non-empty source must create a layer")
	}
	if ls := c.Layers(); len(ls) != 1 || ls[0].Source != " " {
		t.Fatalf("source altered: %+v", ls)
	}
}

func TestAddLayer_UniqueIDsAndZOrder(t *testing.T) {
	c := NewComposition()
	a, _ := c.AddLayer("a.png")
	b, _ := c.AddLayer("b.png")
	if a == b {
		t.Fatalf("duplicate layer ids")
	}
	ls := c.Layers()
	if ls[0].ID != a || ls[1].ID != b {
		t.Fatalf("insertion order not preserved")
	}
	c.MoveLayer(a, 100, 100)
	ls = c.Layers()
	if ls[0].ID != a || ls[1].ID != b {
		t.Fatalf("move reordered layers")
	}
}

func TestMoveLayer(t *testing.T) {
	c := NewComposition()
	id, _ := c.AddLayer("a.png")
	if !c.MoveLayer(id, -40, 500) {
		t.Fatalf("MoveLayer on existing id returned false")
	}
	l, _ := c.Layer(id)
	if l.X != -40 || l.Y != 500 {
		t.Fatalf("position = (%v,%v), off-card positions must be kept", l.X, l.Y)
	}
	if c.MoveLayer("missing", 1, 1) {
		t.Fatalf("MoveLayer on unknown id should report false")
	}
}

func TestLayerAt_TopMostWins(t *testing.T) {
	c := NewComposition()
	bottom, _ := c.AddLayer("a.png")
	top, _ := c.AddLayer("b.png")
	size := Size{W: 64, H: 64}

	l, ok := c.LayerAt(Point{X: 20, Y: 20}, size)
	if !ok || l.ID != top {
		t.Fatalf("expected top layer, got %+v", l)
	}
	c.MoveLayer(top, 200, 0)
	l, ok = c.LayerAt(Point{X: 20, Y: 20}, size)
	if !ok || l.ID != bottom {
		t.Fatalf("expected bottom layer, got %+v", l)
	}
	if _, ok := c.LayerAt(Point{X: 150, Y: 150}, size); ok {
		t.Fatalf("expected miss")
	}
}

func TestSnapshot_IsDetached(t *testing.T) {
	c := NewComposition()
	id, _ := c.AddLayer("a.png")
	s := c.Snapshot()
	c.MoveLayer(id, 50, 60)
	c.SetName("Changed")
	if s.Layers[0].X != 10 || s.Fields.Name != "Your Name" {
		t.Fatalf("snapshot observed later mutation: %+v", s)
	}
}

func TestComposition_ConcurrentAccess(t *testing.T) {
	c := NewComposition()
	id, _ := c.AddLayer("a.png")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.MoveLayer(id, float64(i), float64(i))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Snapshot()
		}()
	}
	wg.Wait()
}

func TestParseColorHex(t *testing.T) {
	cases := []struct {
		in   ColorHex
		want color.NRGBA
		ok   bool
	}{
		{"#bfdbfe", color.NRGBA{R: 0xbf, G: 0xdb, B: 0xfe, A: 0xff}, true},
		{"#fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, true},
		{"#11182780", color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0x80}, true},
		{"blue", color.NRGBA{}, false},
		{"#zzzzzz", color.NRGBA{}, false},
	}
	for _, tc := range cases {
		got, err := ParseColorHex(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseColorHex(%q) err = %v", tc.in, err)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseColorHex(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
