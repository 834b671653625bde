//go:build fyne && cgo

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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"gobizcard/internal/cardfile"
	"gobizcard/internal/config"
	"gobizcard/internal/crash"
	"gobizcard/internal/domain"
	"gobizcard/internal/editor"
	"gobizcard/internal/export"
	applog "gobizcard/internal/log"
	"gobizcard/internal/version"
)

// colorPresets are the swatches offered next to the colour background.
var colorPresets = []domain.ColorHex{"#ffffff", "#bfdbfe", "#fef08a"}

// Run opens the card editor window. A non-empty cardFile is loaded and
// watched; edits on disk replace the composition shown in the window.
func Run(cfg config.AppConfig, cardFile string) error {
	l := applog.WithComponent("ui")
	defer crash.Recover(crash.Details{Command: "ui", CardFile: cardFile})
	l.Info("starting UI", slog.String("version", version.String()))

	var comp *domain.Composition
	if cardFile != "" {
		c, err := cardfile.Load(cardFile)
		if err != nil {
			return err
		}
		comp = c
	}
	s, err := editor.New(cfg, comp)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			l.Warn("close session", slog.Any("err", err))
		}
	}()

	fyneApp := app.NewWithID("gobizcard")
	w := fyneApp.NewWindow("Business Card Creator")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 720)
	winH := prefs.IntWithFallback("window.height", 640)
	if winW < 480 {
		winW = 480
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	cc := NewCardCanvas(s)
	s.UseViewScale(cc.Scale)

	s.Pipeline.OnDone = func(res export.Result, err error) {
		fyne.Do(func() {
			switch {
			case err != nil:
				status.SetText("Export failed: " + err.Error())
			case res.Skipped:
				status.SetText("Nothing to export")
			default:
				status.SetText(fmt.Sprintf("Saved %s (%.2fx)", res.Path, res.Density))
			}
		})
	}

	// Background
	kind := widget.NewRadioGroup([]string{string(domain.BackgroundColor), string(domain.BackgroundImage)}, func(v string) {
		s.Composition().SetBackgroundKind(domain.BackgroundKind(v))
		cc.Render()
	})
	kind.Horizontal = true
	swatches := container.NewHBox()
	for _, hex := range colorPresets {
		swatches.Add(widget.NewButton(string(hex), func() {
			s.Composition().SetBackgroundColor(hex)
			cc.Render()
		}))
	}
	bgImage := widget.NewEntry()
	bgImage.SetPlaceHolder("Background image URL or path")
	bgImage.OnSubmitted = func(v string) {
		s.Composition().SetBackgroundImage(domain.ImageRef(strings.TrimSpace(v)))
		cc.Render()
	}
	bgUse := widget.NewButton("Use", func() { bgImage.OnSubmitted(bgImage.Text) })

	// Font and text
	font := widget.NewSelect([]string{string(domain.FontSans), string(domain.FontSerif), string(domain.FontMono)}, func(v string) {
		s.Composition().SetFont(domain.FontFamily(v))
		cc.Render()
	})
	name := widget.NewEntry()
	company := widget.NewEntry()
	email := widget.NewEntry()
	name.OnChanged = func(v string) { s.Composition().SetName(v); cc.Render() }
	company.OnChanged = func(v string) { s.Composition().SetCompany(v); cc.Render() }
	email.OnChanged = func(v string) { s.Composition().SetEmail(v); cc.Render() }

	// syncControls copies the composition into the widgets without echoing back.
	syncControls := func() {
		comp := s.Composition()
		bg := comp.Background()
		f := comp.Fields()
		kind.Selected = string(bg.Kind)
		kind.Refresh()
		bgImage.SetText(string(bg.Image))
		font.Selected = string(comp.Font())
		font.Refresh()
		for _, e := range []struct {
			w *widget.Entry
			v string
		}{{name, f.Name}, {company, f.Company}, {email, f.Email}} {
			h := e.w.OnChanged
			e.w.OnChanged = nil
			e.w.SetText(e.v)
			e.w.OnChanged = h
		}
	}
	syncControls()

	// Layers
	layerRef := widget.NewEntry()
	layerRef.SetPlaceHolder("Image URL or path")
	addLayer := func(ref string) {
		if _, ok := s.Composition().AddLayer(domain.ImageRef(strings.TrimSpace(ref))); !ok {
			status.SetText("Enter an image URL or path first")
			return
		}
		layerRef.SetText("")
		status.SetText("Image added; drag it into place")
		cc.Render()
	}
	addBtn := widget.NewButton("Add image", func() { addLayer(layerRef.Text) })
	browseBtn := widget.NewButton("Browse…", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				status.SetText("Open failed: " + err.Error())
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			addLayer(path)
		}, w)
	})

	exportBtn := widget.NewButton("Download PDF", s.Pipeline.Trigger())
	exportBtn.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Background", container.NewVBox(kind, swatches, container.NewBorder(nil, nil, nil, bgUse, bgImage))),
		widget.NewFormItem("Font", font),
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Company", company),
		widget.NewFormItem("Email", email),
		widget.NewFormItem("Image", container.NewBorder(nil, nil, nil, container.NewHBox(addBtn, browseBtn), layerRef)),
	)

	if cardFile != "" {
		addRecentCard(prefs, cardFile)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			err := cardfile.Watch(ctx, cardFile, func(c *domain.Composition, err error) {
				fyne.Do(func() {
					if err != nil {
						status.SetText("Reload failed: " + err.Error())
						return
					}
					cc.Rebind(c)
					syncControls()
					status.SetText("Reloaded " + filepath.Base(cardFile))
				})
			})
			if err != nil && ctx.Err() == nil {
				l.Warn("card watch stopped", slog.Any("err", err))
			}
		}()
	}
	if recent := loadRecentCards(prefs); len(recent) > 0 {
		l.Debug("recent cards", slog.Int("count", len(recent)))
	}

	w.SetContent(container.NewBorder(nil, container.NewBorder(nil, nil, nil, exportBtn, status), nil, nil,
		container.NewVScroll(container.NewVBox(cc, form))))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	cc.Render()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

const (
	recentPrefsKey = "recent.cards"
	recentMax      = 10
)

func loadRecentCards(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func addRecentCard(p fyne.Preferences, path string) {
	abs, _ := filepath.Abs(path)
	out := []string{abs}
	for _, s := range loadRecentCards(p) {
		if !strings.EqualFold(s, abs) {
			out = append(out, s)
		}
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	b, _ := json.Marshal(out)
	p.SetString(recentPrefsKey, string(b))
}
