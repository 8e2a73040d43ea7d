// Package main is the entry point for the scribe engine inspector: it
// loads a file into the text core, runs the highlighter over it, and
// prints a per-row token summary. Rendering and input live elsewhere;
// this binary exercises the storage and highlighting engine end to end.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribe-editor/scribe/internal/config"
	"github.com/scribe-editor/scribe/internal/engine/document"
	"github.com/scribe-editor/scribe/internal/syntax/highlight"
	"github.com/scribe-editor/scribe/internal/syntax/lexer"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		langName    string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", defaultConfigPath(), "path to configuration file")
	flag.StringVar(&langName, "lang", "", "highlight language (overrides config and extension)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("scribe %s (%s)\n", version, commit)
		return 0
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scribe [flags] <file>")
		flag.PrintDefaults()
		return 2
	}
	path := flag.Arg(0)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		return 1
	}
	log := newLogger(cfg.Log.Level)

	reg := lexer.NewRegistry()
	for _, lf := range cfg.LanguageFiles {
		if _, err := reg.LoadFile(lf); err != nil {
			log.Warn("language definition skipped", "path", lf, "err", err)
		}
	}
	lang := pickLanguage(reg, cfg, langName, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		return 1
	}
	opts, err := cfg.DocumentOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		return 1
	}
	doc := document.FromBytes(raw, opts...)

	h := highlight.New(lexer.New(lang), highlight.WithSynchronous(), highlight.WithLogger(log))
	doc.OnChange(h.HandleEdit)
	h.Rescan(doc.Snapshot())

	log.Info("document loaded",
		"path", path,
		"rows", doc.Rows(),
		"bytes", doc.Len(),
		"charset", doc.Charset().Name(),
		"language", lang.Name,
		"lex_calls", h.LexCalls(),
	)

	printSummary(doc, h)
	return 0
}

func printSummary(doc *document.Document, h *highlight.Highlighter) {
	snap := doc.Snapshot()
	for row := uint32(0); row < snap.Rows(); row++ {
		raw, err := snap.RowBytes(row)
		if err != nil {
			continue
		}
		spans := h.IntervalsForLine(row, 0, int64(len(raw)))
		start, _ := snap.LineStart(row)
		var b strings.Builder
		for i, s := range spans {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s[%d:%d)", s.Kind, s.Start-start, s.End-start)
		}
		fmt.Printf("%4d | %s\n", row, b.String())
	}
}

func pickLanguage(reg *lexer.Registry, cfg *config.Config, override, path string) *lexer.Language {
	if override != "" {
		if lang, ok := reg.ByName(override); ok {
			return lang
		}
	}
	if lang, ok := reg.ByExtension(filepath.Ext(path)); ok {
		return lang
	}
	if lang, ok := reg.ByName(cfg.Language); ok {
		return lang
	}
	return lexer.DefaultLanguage()
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(log)
	return log
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "scribe", "scribe.toml")
	}
	return "scribe.toml"
}
