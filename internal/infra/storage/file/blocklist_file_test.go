//go:build !integration

package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/infra/logging"
)

func TestBlocklistRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sets := [][]int64{
		{},
		{555},
		{900, 12, 555, 7},
	}
	for _, set := range sets {
		path := filepath.Join(t.TempDir(), "blocked_users.json")
		repo := NewBlocklistRepo(path, logging.Nop())

		if err := repo.Save(ctx, set); err != nil {
			t.Fatalf("save %v: %v", set, err)
		}
		got, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		want := append([]int64{}, set...)
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		if len(want) == 0 && len(got) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip of %v returned %v", set, got)
		}
	}
}

func TestBlocklistRepo_FileIsAJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_users.json")
	repo := NewBlocklistRepo(path, logging.Nop())
	if err := repo.Save(context.Background(), []int64{42, 7}); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "[7,42]" {
		t.Errorf("unexpected file content %q", b)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestBlocklistRepo_MissingFileIsEmpty(t *testing.T) {
	repo := NewBlocklistRepo(filepath.Join(t.TempDir(), "nope.json"), logging.Nop())
	ids, err := repo.Load(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty set, got %v, %v", ids, err)
	}
}

func TestBlocklistRepo_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked_users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo := NewBlocklistRepo(path, logging.Nop())
	if _, err := repo.Load(context.Background()); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestBlocklistRepo_SaveIntoMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "blocked_users.json")
	repo := NewBlocklistRepo(path, logging.Nop())
	if err := repo.Save(context.Background(), []int64{1}); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
