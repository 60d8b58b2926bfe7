package words

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/cache"
)

// Repository serves the word list cache-first: a non-empty cache is
// returned as is, otherwise the fetcher is consulted and its answer cached.
type Repository struct {
	cache       cache.Cache
	fetcher     Fetcher
	letterCount int
	fallback    bool
}

// NewRepository wires a cache and a fetcher. When fallback is set, the
// embedded list is served if both the cache and the fetcher come up empty.
func NewRepository(c cache.Cache, f Fetcher, letterCount int, fallback bool) *Repository {
	return &Repository{cache: c, fetcher: f, letterCount: letterCount, fallback: fallback}
}

// Words returns the cached list, fetching and caching it when empty.
func (r *Repository) Words(ctx context.Context) ([]string, error) {
	cached, err := r.cache.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("word cache unreadable; fetching")
	}
	if list := normalize(cached, r.letterCount); len(list) > 0 {
		log.Debug().Int("words", len(list)).Msg("word list served from cache")
		return list, nil
	}
	return r.Refresh(ctx)
}

// Refresh fetches the list from upstream and overwrites the cache.
func (r *Repository) Refresh(ctx context.Context) ([]string, error) {
	list, err := r.fetch(ctx)
	if err != nil {
		if !r.fallback || ctx.Err() != nil {
			return nil, err
		}
		log.Warn().Err(err).Msg("word fetch failed; using embedded list")
		return Embedded(r.letterCount)
	}
	if err := r.cache.Save(ctx, list); err != nil {
		// the list is still usable for this run
		log.Warn().Err(err).Msg("save word cache")
	}
	log.Info().Int("words", len(list)).Msg("word list fetched")
	return list, nil
}

func (r *Repository) fetch(ctx context.Context) ([]string, error) {
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrFetchFailed)
	}
	list, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	list = normalize(list, r.letterCount)
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}

// IsUnavailable reports whether err means "no words yet" rather than a
// programming or configuration error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrEmptyList)
}
