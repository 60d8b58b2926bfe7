package game

import (
	"math/rand/v2"
	"testing"
)

func TestFeedLateSubscriberGetsLatest(t *testing.T) {
	f := NewFeed(Session{State: StateLoading})
	f.Publish(Session{State: StatePlaying, Message: "one"})
	f.Publish(Session{State: StateWon, Message: "two"})

	ch, cancel := f.Subscribe()
	defer cancel()
	if s := <-ch; s.Message != "two" {
		t.Fatalf("late subscriber got %q, want two", s.Message)
	}
}

func TestFeedSlowSubscriberKeepsNewest(t *testing.T) {
	f := NewFeed(Session{})
	ch, cancel := f.Subscribe()
	defer cancel()

	for _, m := range []string{"a", "b", "c"} {
		f.Publish(Session{Message: m})
	}
	if s := <-ch; s.Message != "c" {
		t.Fatalf("got %q, want c", s.Message)
	}
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra snapshot %q", s.Message)
	default:
	}
}

func TestFeedCancel(t *testing.T) {
	f := NewFeed(Session{})
	ch, cancel := f.Subscribe()
	if f.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", f.Subscribers())
	}
	cancel()
	cancel()
	if f.Subscribers() != 0 {
		t.Fatalf("subscribers = %d, want 0", f.Subscribers())
	}
	<-ch // buffered initial snapshot
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}
	f.Publish(Session{Message: "after"})
}

func TestRandomPickerIsDeterministicForSeed(t *testing.T) {
	words := []string{"maison", "jardin", "soleil", "prince", "bateau"}
	a := NewRandomPicker(rand.NewPCG(7, 11))
	b := NewRandomPicker(rand.NewPCG(7, 11))
	for i := 0; i < 20; i++ {
		if x, y := a.Pick(words), b.Pick(words); x != y {
			t.Fatalf("draw %d: %q != %q", i, x, y)
		}
	}
	if got := a.Pick(nil); got != "" {
		t.Fatalf("Pick(nil) = %q, want empty", got)
	}
}

func TestRandomPickerCoversList(t *testing.T) {
	words := []string{"maison", "jardin", "soleil"}
	p := NewRandomPicker(rand.NewPCG(3, 5))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[p.Pick(words)] = true
	}
	if len(seen) != len(words) {
		t.Fatalf("saw %d distinct words, want %d", len(seen), len(words))
	}
}
