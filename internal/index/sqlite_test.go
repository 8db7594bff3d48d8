package index_test

import (
	"context"
	"path/filepath"
	"testing"

	"go-rover-gallery/internal/index"
	"go-rover-gallery/internal/model"
)

func openIndex(t *testing.T) *index.SQLite {
	t.Helper()
	s, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIndex_UpsertList(t *testing.T) {
	ctx := context.Background()
	s := openIndex(t)
	p := model.PhotoRecord{ID: 7, Sol: 3, EarthDate: "2020-01-01",
		Camera: model.Camera{Name: "MAST", FullName: "Mast Camera v1.2"},
		Rover:  model.Rover{Name: "Curiosity"}, ImageSource: "http://img/7.jpg"}
	img := model.NewCachedImage(p, 100)
	if err := s.Upsert(ctx, img); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	img.Size = 120
	if err := s.Upsert(ctx, img); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}
	got := list[0]
	if got.Camera != "Mast Camera v1.2" || got.Rover != "Curiosity" || got.PhotoID != 7 || got.Size != 120 || got.CreatedAt.IsZero() {
		t.Fatalf("got %+v", got)
	}
	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
	m, err := s.Lookup(ctx)
	if err != nil || len(m) != 1 || m[img.FileName].EarthDate != "2020-01-01" {
		t.Fatalf("lookup = %+v, %v", m, err)
	}
}

func TestIndex_RejectsEmptyAndResets(t *testing.T) {
	ctx := context.Background()
	s := openIndex(t)
	if m, err := s.Lookup(ctx); err != nil || len(m) != 0 {
		t.Fatalf("lookup on empty index = %v, %v", m, err)
	}
	if err := s.Upsert(ctx, model.CachedImage{}); err == nil {
		t.Fatal("expected error for empty filename")
	}
	_ = s.Upsert(ctx, model.CachedImage{FileName: "a.jpg"})
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("count after reset = %d", n)
	}
}
