/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Geometry describes the single PDF page. Units are millimetres.
type Geometry struct {
	WidthMM     float64
	HeightMM    float64
	Orientation string // "L" or "P"
}

// CardGeometry is the 91x55 mm landscape business card page.
var CardGeometry = Geometry{WidthMM: 91, HeightMM: 55, Orientation: "L"}

// Rect is a placement rectangle in page units.
type Rect struct{ X, Y, W, H float64 }

// Document is an encoded PDF plus the facts needed to verify it.
type Document struct {
	Bytes       []byte
	PageCount   int
	PageWidth   float64
	PageHeight  float64
	Orientation string
	ImageRect   Rect
	// PNG is the raster exactly as it was embedded.
	PNG []byte
}

const rasterName = "card"

// EmbedRaster builds a one page PDF with img placed full-bleed at (0,0).
// Creation and modification dates are set to at so equal input gives equal bytes.
func EmbedRaster(img image.Image, g Geometry, at time.Time) (Document, error) {
	if img == nil {
		return Document{}, fmt.Errorf("embed: nil image")
	}
	if g.WidthMM <= 0 || g.HeightMM <= 0 {
		g = CardGeometry
	}
	orient := g.Orientation
	if orient != "P" {
		orient = "L"
	}
	raster, err := encodePNG(img)
	if err != nil {
		return Document{}, fmt.Errorf("embed: encode png: %w", err)
	}

	// gofpdf swaps Wd and Ht for landscape, so the size is given portrait-wise.
	size := gofpdf.SizeType{Wd: g.WidthMM, Ht: g.HeightMM}
	if orient == "L" {
		size = gofpdf.SizeType{Wd: min(g.WidthMM, g.HeightMM), Ht: max(g.WidthMM, g.HeightMM)}
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "mm",
		OrientationStr: orient,
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(rasterName, opts, bytes.NewReader(raster))
	w, h := pdf.GetPageSize()
	place := Rect{X: 0, Y: 0, W: w, H: h}
	pdf.ImageOptions(rasterName, place.X, place.Y, place.W, place.H, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return Document{}, fmt.Errorf("embed: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("embed: write pdf: %w", err)
	}
	return Document{
		Bytes:       buf.Bytes(),
		PageCount:   pdf.PageCount(),
		PageWidth:   w,
		PageHeight:  h,
		Orientation: orient,
		ImageRect:   place,
		PNG:         raster,
	}, nil
}
