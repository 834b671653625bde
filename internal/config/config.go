/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Logging       LoggingConfig `yaml:"logging"`
	Render        RenderConfig  `yaml:"render"`
	Fonts         FontsConfig   `yaml:"fonts"`
	Export        ExportConfig  `yaml:"export"`
	History       HistoryConfig `yaml:"history"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// RenderConfig controls capture of the card surface.
// Density 0 means "derive from DPI".
type RenderConfig struct {
	Density        float64 `yaml:"density"`
	DPI            int     `yaml:"dpi"`
	AllowRemote    bool    `yaml:"allow_remote"`
	FetchTimeoutMs int     `yaml:"fetch_timeout_ms"`
}

// FontsConfig maps font families to optional TTF files; empty uses the built-in Go fonts.
type FontsConfig struct {
	Sans  string `yaml:"sans"`
	Serif string `yaml:"serif"`
	Mono  string `yaml:"mono"`
}

type ExportConfig struct {
	OutDir    string `yaml:"out_dir"`
	Filename  string `yaml:"filename"`
	Overwrite bool   `yaml:"overwrite"`
	Preset    string `yaml:"preset"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Render:        RenderConfig{Density: 0, DPI: 300, AllowRemote: true, FetchTimeoutMs: 10000},
		Export:        ExportConfig{OutDir: ".", Filename: "business-card.pdf", Overwrite: false, Preset: "print"},
		History:       HistoryConfig{Enabled: false},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile   = "GBC_CONFIG"
	EnvDensity      = "GBC_DENSITY"
	EnvDPI          = "GBC_DPI"
	EnvAllowRemote  = "GBC_ALLOW_REMOTE"
	EnvFetchTimeout = "GBC_FETCH_TIMEOUT_MS"
	EnvOutDir       = "GBC_OUT_DIR"
	EnvOverwrite    = "GBC_OVERWRITE"
	EnvHistory      = "GBC_HISTORY"
	EnvHistoryPath  = "GBC_HISTORY_PATH"
	EnvLogLevel     = "GBC_LOG_LEVEL"
	EnvLogFormat    = "GBC_LOG_FORMAT"
	EnvLogSource    = "GBC_LOG_SOURCE"
	EnvLogFile      = "GBC_LOG_FILE"
)

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoBizCard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoBizCard")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "gobizcard")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gobizcard")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the config file path. GBC_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// A malformed file is reported but defaults plus env are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		// keys the file omits keep their defaults, including booleans
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = err
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// logging
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
	// render
	if src.Render.Density > 0 {
		dst.Render.Density = src.Render.Density
	}
	if src.Render.DPI > 0 {
		dst.Render.DPI = src.Render.DPI
	}
	dst.Render.AllowRemote = src.Render.AllowRemote
	if src.Render.FetchTimeoutMs > 0 {
		dst.Render.FetchTimeoutMs = src.Render.FetchTimeoutMs
	}
	// fonts
	if v := strings.TrimSpace(src.Fonts.Sans); v != "" {
		dst.Fonts.Sans = v
	}
	if v := strings.TrimSpace(src.Fonts.Serif); v != "" {
		dst.Fonts.Serif = v
	}
	if v := strings.TrimSpace(src.Fonts.Mono); v != "" {
		dst.Fonts.Mono = v
	}
	// export
	if v := strings.TrimSpace(src.Export.OutDir); v != "" {
		dst.Export.OutDir = v
	}
	if v := strings.TrimSpace(src.Export.Filename); v != "" {
		dst.Export.Filename = v
	}
	dst.Export.Overwrite = src.Export.Overwrite
	if v := strings.TrimSpace(src.Export.Preset); v != "" {
		dst.Export.Preset = strings.ToLower(v)
	}
	// history
	dst.History.Enabled = src.History.Enabled
	if v := strings.TrimSpace(src.History.Path); v != "" {
		dst.History.Path = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDensity)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Render.Density = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDPI)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Render.DPI = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAllowRemote)); v != "" {
		cfg.Render.AllowRemote = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFetchTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.FetchTimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutDir)); v != "" {
		cfg.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOverwrite)); v != "" {
		cfg.Export.Overwrite = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistory)); v != "" {
		cfg.History.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryPath)); v != "" {
		cfg.History.Path = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"render.density":          EnvDensity,
		"render.dpi":              EnvDPI,
		"render.allow_remote":     EnvAllowRemote,
		"render.fetch_timeout_ms": EnvFetchTimeout,
		"export.out_dir":          EnvOutDir,
		"export.overwrite":        EnvOverwrite,
		"history.enabled":         EnvHistory,
		"history.path":            EnvHistoryPath,
		"logging.level":           EnvLogLevel,
		"logging.format":          EnvLogFormat,
		"logging.source":          EnvLogSource,
		"logging.file":            EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// FetchTimeout returns the remote image fetch timeout.
func (r RenderConfig) FetchTimeout() time.Duration {
	if r.FetchTimeoutMs <= 0 {
		return time.Duration(Defaults().Render.FetchTimeoutMs) * time.Millisecond
	}
	return time.Duration(r.FetchTimeoutMs) * time.Millisecond
}

// HistoryPath resolves the export ledger location, defaulting to the config directory.
func (c AppConfig) HistoryPath() (string, error) {
	if p := strings.TrimSpace(c.History.Path); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}
