// Package config loads maponyms settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"maponyms/internal/gazetteer"
	"maponyms/internal/matchset"
	"maponyms/internal/ocr"
	"maponyms/internal/toponym"
	"maponyms/pkg/colorutil"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const appName = "maponyms"

type Config struct {
	Log       LogConfig       `toml:"log"`
	OCR       OCRConfig       `toml:"ocr"`
	Toponyms  ToponymConfig   `toml:"toponyms"`
	Gazetteer GazetteerConfig `toml:"gazetteer"`
	Matching  MatchingConfig  `toml:"matching"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type OCRConfig struct {
	Language       string   `toml:"language"`
	Colors         []string `toml:"colors"` // "r,g,b" or "#rrggbb"
	ColorTolerance float64  `toml:"color_tolerance"`
	MinConfidence  float64  `toml:"min_confidence"`
	MinImageHeight int      `toml:"min_image_height"`
}

type ToponymConfig struct {
	MinAlphas      int     `toml:"min_alphas"`
	MinAlphaRatio  float64 `toml:"min_alpha_ratio"`
	Capitalized    bool    `toml:"capitalized"`
	Anchors        string  `toml:"anchors"` // "marker" or "none"
	MustHaveAnchor bool    `toml:"must_have_anchor"`
}

type GazetteerConfig struct {
	Mode          string        `toml:"mode"` // "online" or "offline"
	DBPath        string        `toml:"db_path"`
	URL           string        `toml:"url"`
	UserAgent     string        `toml:"user_agent"`
	Rate          float64       `toml:"rate"`
	Timeout       time.Duration `toml:"timeout"`
	Limit         int           `toml:"limit"`
	Lang          string        `toml:"lang"`
	Workers       int           `toml:"workers"`
	LookupTimeout time.Duration `toml:"lookup_timeout"`
}

type MatchingConfig struct {
	Family        string  `toml:"family"` // "similarity" or "affine"
	MaxResidual   float64 `toml:"max_residual"`
	MinMatches    int     `toml:"min_matches"`
	MaxSeeds      int     `toml:"max_seeds"`
	MaxAnisotropy float64 `toml:"max_anisotropy"`
	MaxRefits     int     `toml:"max_refits"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ocrOpts := ocr.DefaultOptions()
	filter := toponym.DefaultRuleFilter()
	gaz := gazetteer.DefaultConfig()
	match := matchset.DefaultConfig()

	return &Config{
		Log: LogConfig{Level: "info"},
		OCR: OCRConfig{
			Language:       ocrOpts.Language,
			Colors:         []string{"0,0,0"},
			ColorTolerance: ocrOpts.ColorTolerance,
			MinConfidence:  ocrOpts.MinConfidence,
			MinImageHeight: ocrOpts.MinImageHeight,
		},
		Toponyms: ToponymConfig{
			MinAlphas:     filter.MinAlphas,
			MinAlphaRatio: filter.MinAlphaRatio,
			Capitalized:   filter.Capitalized,
			Anchors:       "marker",
		},
		Gazetteer: GazetteerConfig{
			Mode:          gaz.Mode,
			DBPath:        gaz.DBPath,
			URL:           gaz.BaseURL,
			UserAgent:     gaz.UserAgent,
			Rate:          gaz.Rate,
			Timeout:       gaz.Timeout,
			Workers:       4,
			LookupTimeout: time.Minute,
		},
		Matching: MatchingConfig{
			Family:        string(match.Family),
			MaxResidual:   match.MaxResidual,
			MinMatches:    match.MinMatches,
			MaxSeeds:      match.MaxSeeds,
			MaxAnisotropy: match.MaxAnisotropy,
			MaxRefits:     match.MaxRefits,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/maponyms/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Load decodes the file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if _, err := c.TextColors(); err != nil {
		return err
	}
	switch c.Gazetteer.Mode {
	case gazetteer.ModeOnline, gazetteer.ModeOffline:
	default:
		return fmt.Errorf("%w: %q", gazetteer.ErrUnknownMode, c.Gazetteer.Mode)
	}
	switch c.Toponyms.Anchors {
	case "marker", "none":
	default:
		return fmt.Errorf("unknown anchor detector %q", c.Toponyms.Anchors)
	}
	if _, err := matchset.ParseFamily(c.Matching.Family); err != nil {
		return err
	}
	return nil
}

// TextColors parses the configured target text colors.
func (c *Config) TextColors() ([]color.RGBA, error) {
	if len(c.OCR.Colors) == 0 {
		return nil, errors.New("no text colors configured")
	}
	colors := make([]color.RGBA, 0, len(c.OCR.Colors))
	for _, s := range c.OCR.Colors {
		col, err := colorutil.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("text color %q: %w", s, err)
		}
		colors = append(colors, col)
	}
	return colors, nil
}

// OCROptions returns the text detector options.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{
		Language:       c.OCR.Language,
		ColorTolerance: c.OCR.ColorTolerance,
		MinConfidence:  c.OCR.MinConfidence,
		MinImageHeight: c.OCR.MinImageHeight,
	}
}

// RuleFilter returns the toponym candidate rules.
func (c *Config) RuleFilter() toponym.RuleFilter {
	return toponym.RuleFilter{
		MinAlphas:     c.Toponyms.MinAlphas,
		MinAlphaRatio: c.Toponyms.MinAlphaRatio,
		Capitalized:   c.Toponyms.Capitalized,
	}
}

// AnchorDetector returns the configured anchor detector.
func (c *Config) AnchorDetector() toponym.AnchorDetector {
	if c.Toponyms.Anchors == "none" {
		return toponym.NoAnchors{}
	}
	return toponym.DefaultMarkerAnchors()
}

// GazetteerConfig returns the resolver backend settings.
func (c *Config) GazetteerConfig() gazetteer.Config {
	return gazetteer.Config{
		Mode:      c.Gazetteer.Mode,
		DBPath:    c.Gazetteer.DBPath,
		BaseURL:   c.Gazetteer.URL,
		UserAgent: c.Gazetteer.UserAgent,
		Rate:      c.Gazetteer.Rate,
		Timeout:   c.Gazetteer.Timeout,
	}
}

// ResolveOptions returns the per-run lookup options.
func (c *Config) ResolveOptions() gazetteer.ResolveOptions {
	return gazetteer.ResolveOptions{
		Limit:   c.Gazetteer.Limit,
		Lang:    c.Gazetteer.Lang,
		Workers: c.Gazetteer.Workers,
		Timeout: c.Gazetteer.LookupTimeout,
	}
}

// MatchConfig returns the match set search settings.
func (c *Config) MatchConfig() matchset.Config {
	return matchset.Config{
		Family:        matchset.Family(c.Matching.Family),
		MaxResidual:   c.Matching.MaxResidual,
		MinMatches:    c.Matching.MinMatches,
		MaxSeeds:      c.Matching.MaxSeeds,
		MaxAnisotropy: c.Matching.MaxAnisotropy,
		MaxRefits:     c.Matching.MaxRefits,
	}
}
