// Package rewriter runs the per-file pipeline: load, extract pairs,
// translate the pending ones, rewrite in place.
package rewriter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rpy-translator/internal/cache"
	"rpy-translator/internal/interpolation"
	"rpy-translator/internal/parser"
	"rpy-translator/internal/textutil"
	"rpy-translator/internal/translation"

	"github.com/rs/zerolog/log"
)

// Translator is the injected translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string, formality translation.Formality) (string, error)
}

// TranslateFunc adapts a plain function to Translator, mainly for tests.
type TranslateFunc func(ctx context.Context, text, targetLang string, formality translation.Formality) (string, error)

func (f TranslateFunc) Translate(ctx context.Context, text, targetLang string, formality translation.Formality) (string, error) {
	return f(ctx, text, targetLang, formality)
}

// Options control one run of the pipeline.
type Options struct {
	// TargetLang is the resolved target-language code.
	TargetLang string
	// Formality is forwarded to the translator.
	Formality translation.Formality
	// Retranslate re-sends units whose target is already non-empty.
	Retranslate bool
}

// FileStats summarizes what happened to one file.
type FileStats struct {
	Path       string
	Units      int
	Pending    int
	Translated int
	Failed     int
}

// Rewriter ties the parser to the translator and the translation memory.
type Rewriter struct {
	translator Translator
	memory     *cache.TranslationCache
}

// New creates a Rewriter. memory may be nil to disable caching.
func New(translator Translator, memory *cache.TranslationCache) *Rewriter {
	return &Rewriter{translator: translator, memory: memory}
}

// ProcessFile translates the pending pairs of one file and writes the
// result back atomically. A returned error means the whole file was
// skipped and left untouched; per-unit translation failures are counted
// in FileStats and reported, not returned.
func (r *Rewriter) ProcessFile(ctx context.Context, path string, opts Options) (FileStats, error) {
	stats := FileStats{Path: path}

	doc, err := parser.Load(path)
	if err != nil {
		return stats, err
	}

	units, err := parser.Extract(doc)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	stats.Units = len(units)

	pending := parser.Pending(units, opts.Retranslate)
	stats.Pending = len(pending)
	if len(pending) == 0 {
		return stats, nil
	}

	for _, unit := range pending {
		if ctx.Err() != nil {
			break
		}

		translated, err := r.translateUnit(ctx, unit.Source, opts)
		if err != nil {
			stats.Failed++
			log.Warn().
				Err(err).
				Str("file", path).
				Int("line", unit.NewLine+1).
				Str("text", textutil.Truncate(unit.Source, 40)).
				Msg("Unit translation failed, leaving target empty")
			continue
		}

		if err := doc.Rewrite(unit, translated); err != nil {
			stats.Failed++
			log.Warn().
				Err(err).
				Str("file", path).
				Int("line", unit.NewLine+1).
				Msg("Rewrite failed, leaving target empty")
			continue
		}
		stats.Translated++
	}

	if stats.Translated == 0 {
		// Nothing changed; do not rewrite the file at all.
		return stats, ctx.Err()
	}

	if err := writeAtomic(path, []byte(doc.Content())); err != nil {
		return stats, fmt.Errorf("write %s: %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("units", stats.Units).
		Int("translated", stats.Translated).
		Int("failed", stats.Failed).
		Msg("File translated")

	return stats, ctx.Err()
}

// translateUnit resolves one source text: translation memory first, then
// the API with markup protected.
func (r *Rewriter) translateUnit(ctx context.Context, source string, opts Options) (string, error) {
	if r.memory != nil {
		if translated, ok := r.memory.Get(ctx, opts.TargetLang, string(opts.Formality), source); ok {
			return translated, nil
		}
	}

	protected, mappings := interpolation.Protect(source)

	translated, err := r.translator.Translate(ctx, protected, opts.TargetLang, opts.Formality)
	if err != nil {
		return "", err
	}
	translated = interpolation.Restore(translated, mappings)

	if r.memory != nil {
		if err := r.memory.Set(ctx, opts.TargetLang, string(opts.Formality), source, translated); err != nil {
			log.Warn().Err(err).Msg("Failed to store translation in memory")
		}
	}

	return translated, nil
}

// writeAtomic replaces path via a temp file and rename so an interrupted
// run never leaves a half-written script behind.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rpy-translator-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
