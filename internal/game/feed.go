// internal/game/feed.go
//
// Latest-wins fan-out of session snapshots.
//   - Each subscriber channel is buffered to one snapshot; a newer snapshot
//     replaces an unread one, so Publish never blocks.
//   - A new subscriber immediately receives the latest snapshot.
//   - Cancelling a subscription closes its channel.

package game

import "sync"

// Feed fans session snapshots out to subscribers. Each subscriber channel
// holds at most one snapshot: a newer snapshot replaces an unread one, so a
// slow reader never blocks the publisher and always sees the latest state.
type Feed struct {
	mu     sync.Mutex
	latest Session
	next   int
	subs   map[int]chan Session
}

// NewFeed returns a feed whose late subscribers first receive initial.
func NewFeed(initial Session) *Feed {
	return &Feed{latest: initial.clone(), subs: make(map[int]chan Session)}
}

// Subscribe registers a subscriber. The returned channel already holds the
// latest snapshot. The cancel func unregisters and closes the channel; it is
// safe to call more than once.
func (f *Feed) Subscribe() (<-chan Session, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Session, 1)
	ch <- f.latest.clone()
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}

// Publish records s as the latest snapshot and offers it to every subscriber.
func (f *Feed) Publish(s Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = s.clone()
	for _, ch := range f.subs {
		select {
		case ch <- f.latest.clone():
		default:
			// drop the unread snapshot; only Publish sends, under f.mu
			select {
			case <-ch:
			default:
			}
			ch <- f.latest.clone()
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
