/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"gobizcard/internal/cardfile"
	"gobizcard/internal/config"
	"gobizcard/internal/crash"
	"gobizcard/internal/domain"
	"gobizcard/internal/editor"
	"gobizcard/internal/history"
	applog "gobizcard/internal/log"
	"gobizcard/internal/ui"
	"gobizcard/internal/version"
)

func usage() {
	fmt.Println("Business Card Creator")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gobizcard version|-v|--version           Show version")
	fmt.Println("  gobizcard export <card.yaml> [<outDir>]   Render the card and save business-card.pdf")
	fmt.Println("  gobizcard png <card.yaml> <out.png>       Write the captured raster as PNG")
	fmt.Println("  gobizcard watch <card.yaml> [<outDir>]    Re-export whenever the card file changes")
	fmt.Println("  gobizcard history [<n>]                   List the most recent exports")
	fmt.Println("  gobizcard ui [<card.yaml>]                Launch desktop UI (build with -tags fyne for full UI)")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not fully loaded; using defaults", slog.Any("err", cfgErr))
	}

	args := os.Args
	details := crash.Details{}
	if len(args) > 1 {
		details.Command = args[1]
	}
	if len(args) > 2 {
		details.CardFile = args[2]
	}
	defer crash.Recover(details)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Business Card Creator")
			fmt.Println(version.String())
			return
		case "export":
			if len(args) < 3 {
				fmt.Println("export requires <card.yaml>")
				usage()
				os.Exit(2)
			}
			if len(args) >= 4 {
				cfg.Export.OutDir = args[3]
			}
			s := openSession(l, cfg, args[2])
			defer s.Close()
			res, err := s.Pipeline.Export(context.Background())
			if err != nil {
				fail(l, "export failed", err)
			}
			fmt.Println("Saved", res.Path)
			if res.PNGPath != "" {
				fmt.Println("Saved", res.PNGPath)
			}
			return
		case "png":
			if len(args) < 4 {
				fmt.Println("png requires <card.yaml> and <out.png>")
				usage()
				os.Exit(2)
			}
			s := openSession(l, cfg, args[2])
			defer s.Close()
			f, err := os.Create(args[3])
			if err != nil {
				fail(l, "create png", err)
			}
			if err := s.Pipeline.RenderPNG(context.Background(), f); err != nil {
				_ = f.Close()
				fail(l, "render png", err)
			}
			if err := f.Close(); err != nil {
				fail(l, "close png", err)
			}
			fmt.Println("Wrote", args[3])
			return
		case "watch":
			if len(args) < 3 {
				fmt.Println("watch requires <card.yaml>")
				usage()
				os.Exit(2)
			}
			if len(args) >= 4 {
				cfg.Export.OutDir = args[3]
			}
			watch(l, cfg, args[2])
			return
		case "history":
			n := 10
			if len(args) >= 3 {
				v, err := strconv.Atoi(args[2])
				if err != nil || v <= 0 {
					fmt.Println("history expects a positive count")
					os.Exit(2)
				}
				n = v
			}
			printHistory(l, cfg, n)
			return
		case "ui":
			var card string
			if len(args) >= 3 {
				card = args[2]
			}
			if err := ui.Run(cfg, card); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func openSession(l *slog.Logger, cfg config.AppConfig, card string) *editor.Session {
	abs, _ := filepath.Abs(card)
	l.Info("load card", slog.String("path", abs))
	comp, err := cardfile.Load(abs)
	if err != nil {
		fail(l, "load card failed", err)
	}
	s, err := editor.New(cfg, comp)
	if err != nil {
		fail(l, "session setup failed", err)
	}
	return s
}

func watch(l *slog.Logger, cfg config.AppConfig, card string) {
	s := openSession(l, cfg, card)
	defer s.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	export := func() {
		res, err := s.Pipeline.Export(ctx)
		if err != nil {
			l.Error("export failed", slog.Any("err", err))
			return
		}
		fmt.Println("Saved", res.Path)
	}
	export()
	err := cardfile.Watch(ctx, card, func(comp *domain.Composition, err error) {
		if err != nil {
			fmt.Println("Reload failed:", err)
			return
		}
		s.Replace(comp, nil)
		export()
	})
	if err != nil {
		fail(l, "watch failed", err)
	}
}

func printHistory(l *slog.Logger, cfg config.AppConfig, n int) {
	path, err := cfg.HistoryPath()
	if err != nil {
		fail(l, "resolve history path", err)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Println("No exports recorded yet. Ledger:", path)
		return
	}
	lg, err := history.Open(path)
	if err != nil {
		fail(l, "open history", err)
	}
	defer lg.Close()
	entries, err := lg.Recent(context.Background(), n)
	if err != nil {
		fail(l, "read history", err)
	}
	if len(entries) == 0 {
		fmt.Println("No exports recorded yet.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-40s  %6d bytes  %.2fx  layers=%d  sha256=%.12s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Path, e.Bytes, e.Density, e.Layers, e.SHA256)
	}
}
