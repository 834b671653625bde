/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets resolves image references used by a card into decoded images.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	applog "gobizcard/internal/log"
)

var (
	// ErrCrossOrigin is returned for remote references when remote loading is not allowed.
	ErrCrossOrigin = errors.New("remote image not allowed")
	// ErrEmptyRef is returned for blank references.
	ErrEmptyRef = errors.New("empty image reference")
)

// CrossOrigin mirrors the crossorigin attribute of an <img>: remote images are
// only usable in Anonymous mode.
type CrossOrigin int

const (
	CrossOriginNone CrossOrigin = iota
	CrossOriginAnonymous
)

// maxBytes bounds a single image body.
const maxBytes = 32 << 20

// Loader fetches and decodes images. Decoded images are cached per reference,
// failures are not. Safe for concurrent use.
type Loader struct {
	Mode    CrossOrigin
	Timeout time.Duration
	Client  *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewLoader returns a loader; allowRemote selects CrossOriginAnonymous.
func NewLoader(allowRemote bool, timeout time.Duration) *Loader {
	mode := CrossOriginNone
	if allowRemote {
		mode = CrossOriginAnonymous
	}
	return &Loader{Mode: mode, Timeout: timeout}
}

// Load resolves ref to an image. Supported forms are plain paths, file://,
// data: (base64 or percent encoded) and http(s)://.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyRef
	}
	l.mu.Lock()
	if img, ok := l.cache[ref]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", describe(ref), err)
	}
	applog.WithComponent("assets").Debug("image loaded", slog.String("ref", describe(ref)), slog.String("format", format),
		slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()))

	l.mu.Lock()
	if l.cache == nil {
		l.cache = make(map[string]image.Image)
	}
	l.cache[ref] = img
	l.mu.Unlock()
	return img, nil
}

// Forget drops a cached reference so the next Load reads it again.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	delete(l.cache, strings.TrimSpace(ref))
	l.mu.Unlock()
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if l.Mode != CrossOriginAnonymous {
			return nil, fmt.Errorf("%s: %w", ref, ErrCrossOrigin)
		}
		return l.fetch(ctx, ref)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", ref, err)
		}
		return readFile(u.Path)
	default:
		return readFile(ref)
	}
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxBytes))
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	// anonymous mode never sends credentials
	req.Header.Set("Accept", "image/*")
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %s", ref, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBytes))
}

func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URI")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// tolerate unpadded payloads
			if b2, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err2 == nil {
				return b2, nil
			}
			return nil, fmt.Errorf("data URI: %w", err)
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URI: %w", err)
	}
	return []byte(s), nil
}

// describe keeps log lines short for large data URIs.
func describe(ref string) string {
	if strings.HasPrefix(strings.ToLower(ref), "data:") {
		if i := strings.IndexByte(ref, ','); i > 0 {
			return ref[:i] + ",…"
		}
	}
	return ref
}
