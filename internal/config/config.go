// Package config holds the editor core's configuration: charset and
// line-terminator declarations, index tuning, and language selection.
// Configuration loads from a TOML file with environment overrides and
// can be live-reloaded through a file watcher.
package config

import (
	"fmt"
	"strings"

	"github.com/scribe-editor/scribe/internal/engine/document"
	"github.com/scribe-editor/scribe/internal/engine/rowindex"
)

// Config is the full configuration tree.
type Config struct {
	// Charset names the declared character encoding of documents.
	Charset string `toml:"charset"`

	// LineTerminator is one of "lf", "crlf", "cr".
	LineTerminator string `toml:"line_terminator"`

	// CheckpointInterval is the row index's checkpoint spacing k.
	CheckpointInterval int `toml:"checkpoint_interval"`

	// Language selects the highlight language by name.
	Language string `toml:"language"`

	// LanguageFiles lists extra YAML/JSON language definitions to load.
	LanguageFiles []string `toml:"language_files"`

	Highlight HighlightConfig `toml:"highlight"`
	Log       LogConfig       `toml:"log"`
}

// HighlightConfig tunes the incremental highlighter.
type HighlightConfig struct {
	// Synchronous runs re-lex passes inline instead of in the
	// background.
	Synchronous bool `toml:"synchronous"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Charset:            "utf-8",
		LineTerminator:     "lf",
		CheckpointInterval: rowindex.DefaultCheckpointInterval,
		Language:           "go",
		Log:                LogConfig{Level: "info"},
	}
}

// Validate checks the configuration for values the core cannot honor.
func (c *Config) Validate() error {
	if _, ok := document.CharsetByName(c.Charset); !ok {
		return fmt.Errorf("unknown charset %q", c.Charset)
	}
	if _, err := c.terminator(); err != nil {
		return err
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint_interval must be positive, got %d", c.CheckpointInterval)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func (c *Config) terminator() (document.LineTerminator, error) {
	switch strings.ToLower(c.LineTerminator) {
	case "lf":
		return document.TerminatorLF, nil
	case "crlf":
		return document.TerminatorCRLF, nil
	case "cr":
		return document.TerminatorCR, nil
	default:
		return 0, fmt.Errorf("unknown line terminator %q", c.LineTerminator)
	}
}

// DocumentOptions translates the configuration into document options.
func (c *Config) DocumentOptions() ([]document.Option, error) {
	cs, ok := document.CharsetByName(c.Charset)
	if !ok {
		return nil, fmt.Errorf("unknown charset %q", c.Charset)
	}
	term, err := c.terminator()
	if err != nil {
		return nil, err
	}
	return []document.Option{
		document.WithCharset(cs),
		document.WithLineTerminator(term),
		document.WithCheckpointInterval(c.CheckpointInterval),
	}, nil
}
