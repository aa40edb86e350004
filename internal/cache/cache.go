// Package cache is the translation memory: an in-memory map, optionally
// backed by PostgreSQL so repeated runs and --all runs across languages
// reuse paid API results.
package cache

import (
	"context"
	"fmt"
	"sync"

	"rpy-translator/internal/textutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS translation_memory (
    hash        TEXT PRIMARY KEY,
    lang        TEXT NOT NULL,
    source      TEXT NOT NULL,
    translated  TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// TranslationCache caches translations keyed by target language,
// formality and source text. With a nil pool it is memory-only.
type TranslationCache struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// Open connects to PostgreSQL and ensures the schema. An empty
// databaseURL yields a memory-only cache.
func Open(ctx context.Context, databaseURL string) (*TranslationCache, error) {
	c := &TranslationCache{memory: make(map[string]string)}
	if databaseURL == "" {
		return c, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure translation_memory schema: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL translation memory")
	c.pool = pool
	return c, nil
}

// Close releases the database pool, if any.
func (c *TranslationCache) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// key derives the cache key. Language and formality are part of it so a
// single database serves --all runs.
func key(lang, formality, source string) string {
	return textutil.Hash(lang + "\x1f" + formality + "\x1f" + source)
}

// Get retrieves a cached translation.
func (c *TranslationCache) Get(ctx context.Context, lang, formality, source string) (string, bool) {
	hash := key(lang, formality, source)

	c.mu.RLock()
	if v, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var translated string
	err := c.pool.QueryRow(ctx,
		`SELECT translated FROM translation_memory WHERE hash = $1`, hash,
	).Scan(&translated)
	if err != nil {
		return "", false
	}

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation in memory and, when available, PostgreSQL.
func (c *TranslationCache) Set(ctx context.Context, lang, formality, source, translated string) error {
	hash := key(lang, formality, source)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	_, err := c.pool.Exec(ctx,
		`INSERT INTO translation_memory (hash, lang, source, translated)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated`,
		hash, lang, source, translated)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

// Preload loads all persisted translations into memory.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}

	rows, err := c.pool.Query(ctx, `SELECT hash, translated FROM translation_memory`)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("preload cache: %w", err)
		}
		c.memory[hash] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Msg("Preloaded translation memory")
	return nil
}
