package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Empty(t, cfg.LanguageTags())
}

func TestLoadFormatsAgree(t *testing.T) {
	want := &Config{
		Database: "headers.db",
		Locales:  []string{"de_DE.UTF-8", "C"},
		LogLevel: "debug",
		Debug:    Debug{Header: 1},
	}
	for _, name := range []string{"tagproxy.cue", "tagproxy.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
			assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
			assert.Equal(t, []language.Tag{language.MustParse("de-DE"), language.Und}, cfg.LanguageTags())
		})
	}
}

func TestParseCUEDefaults(t *testing.T) {
	cfg, err := ParseCUE("min.cue", []byte(`database: "x.db"`))
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Debug.Header)
	assert.Empty(t, cfg.Locales)
}

func TestParseCUEErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `databse: "x.db"`},
		{"bad level", `log_level: "loud"`},
		{"wrong type", `debug: header: "high"`},
		{"syntax", `database: `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE("bad.cue", []byte(tt.src))
			require.Error(t, err)
			var ce *ConfigError
			assert.True(t, errors.As(err, &ce), "got %T: %v", err, err)
		})
	}
}

func TestParseTOMLErrors(t *testing.T) {
	_, err := ParseTOML("bad.toml", []byte(`databse = "x"`))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "databse", ce.Field)

	_, err = ParseTOML("bad.toml", []byte(`log_level = "loud"`))
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "log_level", ce.Field)

	_, err = ParseTOML("bad.toml", []byte(`log_level = `))
	assert.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagproxy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	_, err := Load(path)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Message, "unsupported config format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.toml"))
	assert.Error(t, err)
}
