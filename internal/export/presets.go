/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"

	"gobizcard/internal/surface"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetPrint  PresetName = "print"
	PresetScreen PresetName = "screen"
)

// Preset bundles the capture density and the outputs of an export.
type Preset struct {
	Name PresetName
	// ScreenDensity is used as is; zero means derive from dpi.
	ScreenDensity float64
	WritePNG      bool
}

// LookupPreset resolves a preset name; empty selects print.
func LookupPreset(name string) (Preset, error) {
	switch PresetName(strings.ToLower(strings.TrimSpace(name))) {
	case PresetPrint, "":
		return Preset{Name: PresetPrint}, nil
	case PresetScreen:
		return Preset{Name: PresetScreen, ScreenDensity: 2, WritePNG: true}, nil
	default:
		return Preset{}, fmt.Errorf("unknown export preset: %s", name)
	}
}

// Density picks the capture density: an explicit override wins, then the
// preset's own density, then dpi (300 when unset).
func (p Preset) Density(override float64, dpi int) float64 {
	if override > 0 {
		return override
	}
	if p.ScreenDensity > 0 {
		return p.ScreenDensity
	}
	if dpi <= 0 {
		dpi = 300
	}
	return surface.DensityForDPI(float64(dpi))
}

// Apply configures p's density source and PNG output from the preset.
func (p Preset) Apply(pl *Pipeline, override float64, dpi int) {
	d := p.Density(override, dpi)
	pl.Density = func() float64 { return d }
	pl.WritePNG = p.WritePNG
}
