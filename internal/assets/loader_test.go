/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoad_FilePathAndFileURL(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(p, pngBytes(t, solid(4, 3, color.NRGBA{R: 255, A: 255})), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(false, 0)
	for _, ref := range []string{p, "file://" + filepath.ToSlash(p)} {
		img, err := l.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("Load(%q): %v", ref, err)
		}
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
			t.Fatalf("unexpected bounds %v", img.Bounds())
		}
	}
}

func TestLoad_DataURIAndBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, solid(2, 2, color.NRGBA{B: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	ref := "data:image/bmp;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	img, err := NewLoader(false, 0).Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("Load(data uri): %v", err)
	}
	if _, _, b, _ := img.At(1, 1).RGBA(); b>>8 != 255 {
		t.Fatalf("unexpected pixel %v", img.At(1, 1))
	}
}

func TestLoad_RemoteRequiresAnonymousMode(t *testing.T) {
	var hits atomic.Int32
	body := pngBytes(t, solid(8, 8, color.NRGBA{G: 200, A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	blocked := NewLoader(false, time.Second)
	if _, err := blocked.Load(context.Background(), srv.URL+"/logo.png"); !errors.Is(err, ErrCrossOrigin) {
		t.Fatalf("expected ErrCrossOrigin, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("blocked loader must not contact the server")
	}

	l := NewLoader(true, time.Second)
	for i := 0; i < 3; i++ {
		if _, err := l.Load(context.Background(), srv.URL+"/logo.png"); err != nil {
			t.Fatalf("Load remote: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch thanks to the cache, got %d", hits.Load())
	}
	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
	l.Forget(srv.URL + "/logo.png")
	if _, err := l.Load(context.Background(), srv.URL+"/logo.png"); err != nil || hits.Load() != 3 {
		t.Fatalf("Forget did not force a refetch: hits=%d err=%v", hits.Load(), err)
	}
}

func TestLoad_Errors(t *testing.T) {
	l := NewLoader(true, 0)
	if _, err := l.Load(context.Background(), "   "); !errors.Is(err, ErrEmptyRef) {
		t.Fatalf("expected ErrEmptyRef, got %v", err)
	}
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := l.Load(context.Background(), "data:text/plain,hello"); err == nil {
		t.Fatalf("expected decode error for non-image data")
	}
	if _, err := l.Load(context.Background(), "data:image/png;base64"); err == nil {
		t.Fatalf("expected error for malformed data URI")
	}
}
