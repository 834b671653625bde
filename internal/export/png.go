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
	"context"
	"image"
	"image/draw"
	"image/png"
	"io"
)

// encodePNG writes img as an 8-bit PNG. gofpdf rejects 16-bit rasters, so
// anything that is not already 8-bit is converted first.
func encodePNG(img image.Image) ([]byte, error) {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.Gray, *image.Paletted:
	default:
		b := img.Bounds()
		n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
		img = n
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPNG captures the surface and writes the raster that Export would embed.
func (p *Pipeline) RenderPNG(ctx context.Context, w io.Writer) error {
	img, _, err := p.capture(ctx)
	if err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
