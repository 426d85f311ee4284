package thumbcache

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "thumbs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	if _, ok, err := s.Load("https://x/clip.m3u8"); ok || err != nil {
		t.Fatalf("Load(absent) = (%v, %v), want (false, nil)", ok, err)
	}

	if err := s.Save("https://x/clip.m3u8", solid(16, 9, color.White)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	img, ok, err := s.Load("https://x/clip.m3u8")
	if err != nil || !ok {
		t.Fatalf("Load() = (%v, %v)", ok, err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("loaded %dx%d, want 16x9", b.Dx(), b.Dy())
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Save("k", solid(2, 2, color.White)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("k", solid(8, 4, color.Black)); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	img, _, _ := s.Load("k")
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("overwrite lost, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSQLiteStoreBackingCache(t *testing.T) {
	s := newTestSQLiteStore(t)

	New(Options{Store: s}).Set("/videos/b.mp4", solid(6, 6, color.White))

	if _, ok := New(Options{Store: s}).Get("/videos/b.mp4"); !ok {
		t.Error("second cache did not find the stored entry")
	}
}
