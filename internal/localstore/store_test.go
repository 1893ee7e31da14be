package localstore

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/robalobadob/alchemy/internal/errs"
)

func backends(t *testing.T, quota int) map[string]Store {
	t.Helper()
	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "local.db"), quota)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = lite.Close() })
	return map[string]Store{
		"memory": NewMemory(quota),
		"sqlite": lite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err := s.Set(ctx, "a", []byte("1")); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, "a", []byte("2")); err != nil {
				t.Fatal(err)
			}
			v, err := s.Get(ctx, "a")
			if err != nil || string(v) != "2" {
				t.Fatalf("get a = %q, %v", v, err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("second delete should be a no-op: %v", err)
			}
			if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found after delete, got %v", err)
			}
		})
	}
}

func TestKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{ProgressKey("2024-03-02"), ProgressKey("2024-03-01"), KeyElementUsage} {
				if err := s.Set(ctx, k, []byte("{}")); err != nil {
					t.Fatal(err)
				}
			}
			got, err := s.Keys(ctx, PrefixProgress)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{ProgressKey("2024-03-01"), ProgressKey("2024-03-02")}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("keys = %v, want %v", got, want)
			}
		})
	}
}

func TestQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, 32) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "k", make([]byte, 20)); err != nil {
				t.Fatal(err)
			}
			// Overwriting the same key does not count the old value.
			if err := s.Set(ctx, "k", make([]byte, 30)); err != nil {
				t.Fatalf("overwrite within quota: %v", err)
			}
			err := s.Set(ctx, "other", make([]byte, 10))
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("expected quota error, got %v", err)
			}
			if errs.KindOf(err) != errs.KindStorageQuota {
				t.Fatalf("unexpected kind %s", errs.KindOf(err))
			}
		})
	}
}

func TestGuardedCleansStaleProgressAndRetries(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(120)
	g := NewGuarded(base, func() string { return "2024-03-02" })

	stale := ProgressKey("2024-03-01")
	today := ProgressKey("2024-03-02")
	if err := base.Set(ctx, stale, make([]byte, 40)); err != nil {
		t.Fatal(err)
	}
	if err := base.Set(ctx, today, make([]byte, 20)); err != nil {
		t.Fatal(err)
	}

	if err := g.Set(ctx, KeyElementUsage, make([]byte, 40)); err != nil {
		t.Fatalf("guarded set should succeed after cleanup: %v", err)
	}
	if _, err := base.Get(ctx, stale); !errors.Is(err, ErrNotFound) {
		t.Fatal("stale progress should have been removed")
	}
	if _, err := base.Get(ctx, today); err != nil {
		t.Fatal("today's progress must survive cleanup")
	}
}

func TestGuardedReturnsErrorWhenRetryFails(t *testing.T) {
	ctx := context.Background()
	g := NewGuarded(NewMemory(10), func() string { return "2024-03-02" })
	if err := g.Set(ctx, "big", make([]byte, 64)); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestClearAnonymousKeepsUserScopedKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0)
	_ = s.Set(ctx, StatsKey(""), []byte("{}"))
	_ = s.Set(ctx, StatsKey("u1"), []byte("{}"))

	if err := ClearAnonymous(ctx, s); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, StatsKey("")); !errors.Is(err, ErrNotFound) {
		t.Fatal("anonymous stats should be cleared")
	}
	if _, err := s.Get(ctx, StatsKey("u1")); err != nil {
		t.Fatal("user stats should be retained")
	}
}
