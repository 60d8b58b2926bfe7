package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/cache"
	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/db"
	"github.com/robalobadob/motus/internal/words"
)

// openRepository builds the word repository for cfg. conn, when non-nil and
// pointing at the cache file, is shared by the SQLite cache. The returned
// func releases whatever was opened here.
func openRepository(cfg config.Config, conn *sql.DB) (*words.Repository, func(), error) {
	c, closer, err := openCache(cfg, conn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}
	return words.NewRepository(c, newFetcher(cfg), cfg.LetterCount, cfg.WordsFallback), closer, nil
}

func openCache(cfg config.Config, conn *sql.DB) (cache.Cache, func(), error) {
	path := cfg.CacheFile()
	switch cfg.CacheBackend {
	case config.CacheMemory:
		c := cache.NewMemory()
		return c, func() { _ = c.Close() }, nil

	case config.CacheBolt:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		c, err := cache.OpenBolt(path)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil

	default:
		if conn != nil && path == cfg.DBPath {
			c, err := cache.NewSQLite(conn)
			return c, func() {}, err
		}
		own, err := db.Open(path)
		if err != nil {
			return nil, nil, err
		}
		c, err := cache.NewSQLite(own)
		if err != nil {
			_ = own.Close()
			return nil, nil, err
		}
		return c, func() { _ = own.Close() }, nil
	}
}

// newFetcher reads WORDS_FILE when set, the remote list otherwise.
func newFetcher(cfg config.Config) words.Fetcher {
	if cfg.WordsFile != "" {
		return &words.FileFetcher{Path: cfg.WordsFile, Delimiter: cfg.WordsDelimiter, LetterCount: cfg.LetterCount}
	}
	return &words.HTTPFetcher{
		URL:         cfg.WordsURL,
		Delimiter:   cfg.WordsDelimiter,
		LetterCount: cfg.LetterCount,
		Client:      &http.Client{Timeout: cfg.FetchTimeout},
		Retries:     cfg.FetchRetries,
		Backoff:     time.Second,
	}
}

// deliverWords loads the list in the background and hands it to deliver,
// retrying with a capped backoff until it succeeds or ctx ends. Games
// stay loading meanwhile.
func deliverWords(ctx context.Context, repo *words.Repository, deliver func([]string)) {
	wait := 5 * time.Second
	for {
		list, err := repo.Words(ctx)
		if err == nil {
			deliver(list)
			return
		}
		log.Warn().Err(err).Dur("retryIn", wait).Msg("word list unavailable")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if wait < time.Minute {
			wait *= 2
		}
	}
}
