package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/motus/internal/db"
)

func TestWordIndexDeterministic(t *testing.T) {
	day := time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)
	later := time.Date(2026, 10, 17, 22, 59, 0, 0, time.UTC)
	if a, b := WordIndex(day, "salt", 97), WordIndex(later, "salt", 97); a != b {
		t.Fatalf("same day gave %d and %d", a, b)
	}
	if got := WordIndex(day, "salt", 0); got != 0 {
		t.Fatalf("WordIndex with n=0 = %d", got)
	}
	for i := 0; i < 30; i++ {
		d := day.AddDate(0, 0, i)
		if idx := WordIndex(d, "salt", 7); idx < 0 || idx >= 7 {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestPicker(t *testing.T) {
	words := []string{"maison", "jardin", "soleil", "prince", "bateau"}
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	p := Picker{Salt: "s", Now: func() time.Time { return now }}

	date, idx := p.Today(words)
	if date != "2026-10-17" {
		t.Fatalf("date = %q", date)
	}
	if got := p.Pick(words); got != words[idx] {
		t.Fatalf("Pick = %q, want %q", got, words[idx])
	}
	if got := p.Pick(nil); got != "" {
		t.Fatalf("Pick(nil) = %q", got)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenMigrated(filepath.Join(t.TempDir(), "motus.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	st := NewStore(conn)

	played, err := st.AlreadyPlayed(ctx, "u1", "2026-10-17")
	if err != nil || played {
		t.Fatalf("played=%v err=%v", played, err)
	}

	results := []Result{
		{UserID: "u1", Date: "2026-10-17", WordIndex: 3, Attempts: 4, ElapsedMs: 9000},
		{UserID: "u2", Date: "2026-10-17", WordIndex: 3, Attempts: 2, ElapsedMs: 5000},
		{UserID: "u1", Date: "2026-10-17", WordIndex: 3, Attempts: 1, ElapsedMs: 10},
		{UserID: "u3", Date: "2026-10-16", WordIndex: 1, Attempts: 1, ElapsedMs: 1},
	}
	for _, r := range results {
		if err := st.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	played, _ = st.AlreadyPlayed(ctx, "u1", "2026-10-17")
	if !played {
		t.Fatal("u1 should have played")
	}

	top, err := st.Leaderboard(ctx, "2026-10-17", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []LBRow{
		{UserID: "u2", Attempts: 2, ElapsedMs: 5000},
		{UserID: "u1", Attempts: 4, ElapsedMs: 9000},
	}
	if diff := cmp.Diff(want, top); diff != "" {
		t.Fatalf("leaderboard (-want +got):\n%s", diff)
	}
}
