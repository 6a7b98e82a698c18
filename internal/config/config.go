// Package config loads tagproxy configuration from CUE or TOML files.
//
// CUE files are unified with the embedded #Config schema, so unknown fields
// and out-of-range values are rejected with a source position. TOML files
// are decoded strictly and checked against the same rules.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"github.com/roach88/tagproxy/internal/tag"
)

//go:embed schema.cue
var schemaCUE string

// Debug holds the initial debug level of each proxy kind.
type Debug struct {
	Header int `json:"header" toml:"header"`
	Deps   int `json:"deps" toml:"deps"`
}

// Config is the tagproxy configuration.
type Config struct {
	Database string   `json:"database" toml:"database"`
	Locales  []string `json:"locales" toml:"locales"`
	LogLevel string   `json:"log_level" toml:"log_level"`
	Debug    Debug    `json:"debug" toml:"debug"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{LogLevel: "info"}
}

// ConfigError reports an invalid configuration file.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a configuration file, choosing the decoder by extension
// (.cue or .toml). An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(path, data)
	case ".toml":
		return ParseTOML(path, data)
	}
	return nil, &ConfigError{Field: "config", Message: fmt.Sprintf("unsupported config format %q (want .cue or .toml)", filepath.Ext(path))}
}

// ParseCUE unifies a CUE document with the schema and decodes it.
func ParseCUE(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// ParseTOML decodes a TOML document. Unknown keys are rejected.
func ParseTOML(filename string, data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &ConfigError{Field: undecoded[0].String(), Message: "unknown field"}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "log_level", Message: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LanguageTags converts the configured POSIX locale names.
func (c *Config) LanguageTags() []language.Tag {
	tags := make([]language.Tag, 0, len(c.Locales))
	for _, loc := range c.Locales {
		tags = append(tags, tag.ParseLocale(loc))
	}
	return tags
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &ConfigError{Field: field, Message: first.Error(), Pos: positions[0]}
	}
	return &ConfigError{Field: field, Message: first.Error()}
}
