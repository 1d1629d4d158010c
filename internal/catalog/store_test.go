package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/playperu/geogamer/internal/database"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewStore(db)
}

func TestStoreSeedIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for range 2 {
		if err := s.Seed(ctx, slog.Default()); err != nil {
			t.Fatalf("Seed: %v", err)
		}
	}
	infos, err := s.Levels(ctx)
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}
	if len(infos) != 4 {
		t.Fatalf("got %d levels, want 4", len(infos))
	}
	last, err := s.LastLevelID(ctx)
	if err != nil || last != 4 {
		t.Errorf("LastLevelID = %d, %v", last, err)
	}

	l, err := s.Level(ctx, 1)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if l.Rounds[0].CorrectName != "The Witcher 3" {
		t.Errorf("first round = %q", l.Rounds[0].CorrectName)
	}
}

func TestStorePutDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := geogamer.Level{ID: 9, Name: "Bonus", Difficulty: "Hard", Rounds: []geogamer.Round{validRound("p2")}}
	if err := s.Put(ctx, l); err != nil {
		t.Fatalf("Put: %v", err)
	}
	l.Name = "Bonus+"
	if err := s.Put(ctx, l); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, err := s.Level(ctx, 9)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if got.Name != "Bonus+" || got.Rounds[0].Target != (geogamer.Point{X: 10, Y: 90}) {
		t.Errorf("got %+v", got)
	}

	if err := s.Put(ctx, geogamer.Level{ID: 10}); err == nil {
		t.Error("Put accepted an invalid level")
	}

	if err := s.Delete(ctx, 9); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
	if _, err := s.Level(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("Level after delete err = %v", err)
	}
	if last, _ := s.LastLevelID(ctx); last != 0 {
		t.Errorf("LastLevelID on empty store = %d", last)
	}
}
