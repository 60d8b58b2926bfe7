package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/robalobadob/motus/internal/game"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	g := NewGame("g1", ModeNormal, game.New())
	if err := st.Save(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "g1")
	if err != nil || got != g {
		t.Fatalf("Get = %p, %v", got, err)
	}

	n := 0
	st.Each(ctx, func(*Game) { n++ })
	if n != 1 {
		t.Fatalf("Each visited %d games", n)
	}

	_ = st.Delete(ctx, "g1")
	if _, err := st.Get(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
}

func TestGameApplySerialises(t *testing.T) {
	eng := game.New(game.WithPicker(game.FixedPicker("abcdef")))
	g := NewGame("g1", ModeNormal, eng)
	g.Apply(func(e *game.Engine) { e.StartNewGame([]string{"abcdef"}) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Apply(func(e *game.Engine) { e.SubmitLetter('b') })
			g.Apply(func(e *game.Engine) { e.DeleteLastLetter() })
		}()
	}
	wg.Wait()

	s := g.Snapshot()
	if s.State != game.StatePlaying || s.Grid[0].Letter != 'a' {
		t.Fatalf("session = %+v", s)
	}
	if s.CurrentColumn < 0 || s.CurrentColumn > 5 {
		t.Fatalf("column = %d out of range", s.CurrentColumn)
	}
}

func TestGameApplyReportsTransition(t *testing.T) {
	eng := game.New(game.WithPicker(game.FixedPicker("abcdef")))
	g := NewGame("g1", ModeNormal, eng)
	before, after := g.Apply(func(e *game.Engine) { e.StartNewGame([]string{"abcdef"}) })
	if before.State != game.StateLoading || after.State != game.StatePlaying {
		t.Fatalf("transition %q -> %q", before.State, after.State)
	}
}

func TestGameRowIDPerRound(t *testing.T) {
	g := NewGame("g1", ModeNormal, game.New())
	if got := g.RowID(); got != "g1" {
		t.Fatalf("RowID = %q", got)
	}
	g.Restart()
	g.Restart()
	if got := g.RowID(); got != "g1.2" {
		t.Fatalf("RowID after two restarts = %q", got)
	}
}
