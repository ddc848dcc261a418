package main

import (
	"strconv"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const envPrefix = "PROPOSALS_"

// OverlayConfig controls the optional annotated PNG.
type OverlayConfig struct {
	// Base is an optional image to draw over. Empty draws on a blank
	// canvas.
	Base string `koanf:"base"`
	// Path is where the PNG is written. Empty disables the overlay.
	Path string `koanf:"path"`
	// MaxDim caps the longer side of the PNG. Zero keeps full size.
	MaxDim int `koanf:"maxdim"`
	// Thickness is the outline width in pixels.
	Thickness int `koanf:"thickness"`
}

// Config holds the CLI configuration, merged from the optional YAML file and
// PROPOSALS_* environment overrides, in that order. Nested keys use a double
// underscore in the environment, e.g. PROPOSALS_LAYER__MAX_PROPOSALS.
type Config struct {
	// Anchors is the anchor blob locator: a path, file:// or http(s):// URL.
	Anchors string `koanf:"anchors"`
	// Scores is the path of the float32 (N, 2) score pair blob.
	Scores string `koanf:"scores"`
	// Deltas is the path of the float32 (N, 4) refinement delta blob.
	Deltas string `koanf:"deltas"`
	// Output is the path the float32 proposal blob is written to.
	Output string `koanf:"output"`
	// Runs repeats proposal generation for timing. Values below one run
	// once.
	Runs  int  `koanf:"runs"`
	Debug bool `koanf:"debug"`

	Overlay OverlayConfig `koanf:"overlay"`

	// layer carries the raw layer settings subtree for the named parameter
	// override.
	layer map[string]any
}

// LayerSettings returns the named layer parameters from the configuration.
func (c *Config) LayerSettings() map[string]any {
	return c.layer
}

// loadConfig merges defaults, the optional YAML file and environment
// overrides into a Config.
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"output": "proposals.bin",
		"runs":   1,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, "load config defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envTransform), nil); err != nil {
		return nil, errors.Wrap(err, "load config environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.layer = normalizeSettings(k.Cut("layer").Raw())

	return &cfg, nil
}

// envTransform maps PROPOSALS_OVERLAY__MAXDIM style variables onto config
// keys. Double underscores nest; single underscores stay part of the key so
// names like max_proposals survive. Comma separated values become lists.
func envTransform(name, value string) (string, any) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, envPrefix)), "__", ".")
	if strings.Contains(value, ",") {
		return key, strings.Split(strings.TrimSpace(value), ",")
	}
	return key, value
}

// normalizeSettings coerces environment provided strings into the numeric
// types the layer's named parameter override understands. File provided
// values pass through untouched.
func normalizeSettings(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = parseScalar(v)
		case []string:
			out[key] = parseVector(v)
		default:
			out[key] = value
		}
	}
	return out
}

func parseScalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func parseVector(parts []string) any {
	vec := make([]float64, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return parts
		}
		vec[i] = f
	}
	return vec
}
