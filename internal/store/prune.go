// internal/store/prune.go
//
// Eviction of stale games from a Store.
//
// A game is removed when:
//   - it is finished (won/lost) and untouched for the finished TTL, or
//   - it is untouched for the idle TTL, whatever its state.
// Games followed by a live stream are never removed. A TTL <= 0 disables
// its rule.

package store

import (
	"context"
	"time"
)

// Prune deletes stale games from st and returns their IDs.
func Prune(ctx context.Context, st Store, now time.Time, idle, finished time.Duration) []string {
	var stale []string
	st.Each(ctx, func(g *Game) {
		state, touched, watched := g.activity()
		if watched {
			return
		}
		age := now.Sub(touched)
		switch {
		case finished > 0 && state.Finished() && age >= finished:
		case idle > 0 && age >= idle:
		default:
			return
		}
		stale = append(stale, g.ID)
	})
	for _, id := range stale {
		_ = st.Delete(ctx, id)
	}
	return stale
}
