package save

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"sidegig/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("DB_DIALECT", "sqlite")
	store, err := Open(context.Background(), Options{
		SQLitePath: filepath.Join(t.TempDir(), "sidegig.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	state := game.NewState()
	state.Day = 7
	state.AddMoney(120, "test credit", "test")

	if err := store.Save(ctx, "alpha", state); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx, "alpha")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Day != 7 {
		t.Fatalf("expected day 7, got %d", loaded.Day)
	}
	if loaded.Money != state.Money {
		t.Fatalf("expected money %.2f, got %.2f", state.Money, loaded.Money)
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := game.NewState()
	first.Day = 2
	if err := store.Save(ctx, "alpha", first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := game.NewState()
	second.Day = 9
	if err := store.Save(ctx, "alpha", second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, err := store.Load(ctx, "alpha")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Day != 9 {
		t.Fatalf("expected latest snapshot, got day %d", loaded.Day)
	}
	slots, err := store.Slots(ctx)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 || slots[0] != "alpha" {
		t.Fatalf("expected single slot alpha, got %v", slots)
	}
}

func TestLoadMissingSlot(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNoSave) {
		t.Fatalf("expected ErrNoSave, got %v", err)
	}
}

func TestDeleteSlot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "alpha", game.NewState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "alpha"); !errors.Is(err, ErrNoSave) {
		t.Fatalf("expected ErrNoSave after delete, got %v", err)
	}
	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("delete missing slot: %v", err)
	}
}
