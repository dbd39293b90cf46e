package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/quietloop/intentd/internal/database"
)

func setupStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db)
}

func TestGet_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "webhook", `{"enabled":true,"url":"https://x.example/hook"}`); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "webhook")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"enabled":true,"url":"https://x.example/hook"}` {
		t.Errorf("value = %q", got)
	}
}

func TestSet_Overwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "first"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", "second"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "second" {
		t.Errorf("value = %q, want second (last write wins)", got)
	}
}

func TestDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of absent key: %v", err)
	}
}
