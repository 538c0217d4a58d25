package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/d3fig/pkg/cache"
	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

func testDocument(t *testing.T, id string) *scene.Document {
	t.Helper()
	b := scene.NewBuilder()
	if err := b.OpenFigure(scene.FigureProps{ID: id, Width: 640, Height: 480}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.OpenAxes(scene.AxesProps{ID: "ax"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DrawLine([][]float64{{0, 1}, {1, 2}, {2, 3}}, scene.CoordData, scene.LineStyle{Color: "#000000"}, "l"); err != nil {
		t.Fatal(err)
	}
	b.CloseAxes()
	doc, err := b.CloseFigure()
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	fc, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"cached": WithCache(NewMemoryStore(), fc, nil, 0),
	}
}

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer st.Close()
			rec := NewRecord(testDocument(t, "fig-1"))
			if err := st.Put(ctx, rec); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := st.Get(ctx, "fig-1")
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.ID != "fig-1" || got.Width != 640 || got.Height != 480 {
				t.Errorf("Get() = %+v", got)
			}
			if got.Document == nil || len(got.Document.Axes) != 1 || got.Document.Axes[0].Lines[0].ID != "l" {
				t.Errorf("document did not survive: %+v", got.Document)
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.Get(ctx, "missing"); !figerr.Is(err, figerr.ErrCodeNotFound) {
				t.Errorf("Get() error = %v, want NOT_FOUND", err)
			}
			if err := st.Delete(ctx, "missing"); !figerr.Is(err, figerr.ErrCodeNotFound) {
				t.Errorf("Delete() error = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st.Put(ctx, NewRecord(testDocument(t, "gone")))
			if err := st.Delete(ctx, "gone"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, "gone"); !figerr.Is(err, figerr.ErrCodeNotFound) {
				t.Errorf("Get() after Delete error = %v", err)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"old", "new", "mid"} {
				rec := NewRecord(testDocument(t, id))
				rec.CreatedAt = base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
				if err := st.Put(ctx, rec); err != nil {
					t.Fatal(err)
				}
			}
			recs, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			var ids []string
			for _, r := range recs {
				ids = append(ids, r.ID)
				if r.Document != nil {
					t.Errorf("List() should omit documents, %s has one", r.ID)
				}
			}
			if len(ids) != 3 || ids[0] != "new" || ids[1] != "mid" || ids[2] != "old" {
				t.Errorf("List() order = %v, want [new mid old]", ids)
			}
		})
	}
}

func TestStoreRejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
				if _, err := st.Get(ctx, id); !figerr.Is(err, figerr.ErrCodeInvalidInput) {
					t.Errorf("Get(%q) error = %v, want INVALID_INPUT", id, err)
				}
			}
			rec := NewRecord(testDocument(t, "ok"))
			rec.ID = "../x"
			if err := st.Put(ctx, rec); !figerr.Is(err, figerr.ErrCodeInvalidInput) {
				t.Errorf("Put() error = %v, want INVALID_INPUT", err)
			}
			if err := st.Put(ctx, &Record{ID: "empty"}); !figerr.Is(err, figerr.ErrCodeInvalidInput) {
				t.Errorf("Put() without document error = %v", err)
			}
		})
	}
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, _ := NewFileStore(dir)
	st.Put(ctx, NewRecord(testDocument(t, "good")))
	os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0600)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)

	recs, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "good" {
		t.Errorf("List() = %v", recs)
	}
	if _, err := st.Get(ctx, "bad"); !figerr.Is(err, figerr.ErrCodeInvalidFormat) {
		t.Errorf("Get(bad) error = %v, want INVALID_FORMAT", err)
	}
	if st.Path() != dir {
		t.Errorf("Path() = %s", st.Path())
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "d3fig", "documents") {
		t.Errorf("DefaultDir() = %s", dir)
	}
}

func TestMongoRecordConversion(t *testing.T) {
	rec := NewRecord(testDocument(t, "m1"))
	m, err := toMongo(rec)
	if err != nil {
		t.Fatalf("toMongo() error: %v", err)
	}
	if m.ID != "m1" || m.Document == "" {
		t.Errorf("toMongo() = %+v", m)
	}
	back, err := fromMongo(m)
	if err != nil {
		t.Fatalf("fromMongo() error: %v", err)
	}
	if back.Document == nil || back.Document.ID != "m1" || len(back.Document.Data["data01"]) != 3 {
		t.Errorf("fromMongo() document = %+v", back.Document)
	}

	if _, err := fromMongo(mongoRecord{ID: "x", Document: "{"}); !figerr.Is(err, figerr.ErrCodeInvalidFormat) {
		t.Errorf("fromMongo() error = %v, want INVALID_FORMAT", err)
	}
	if r, err := fromMongo(mongoRecord{ID: "x"}); err != nil || r.Document != nil {
		t.Errorf("fromMongo() without body = %+v, %v", r, err)
	}
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := NewMemoryStore()
	st := WithCache(inner, fc, nil, time.Hour)

	if err := st.Put(ctx, NewRecord(testDocument(t, "fig1"))); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, "fig1"); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	// Served from the cache once the backing record is gone.
	if err := inner.Delete(ctx, "fig1"); err != nil {
		t.Fatal(err)
	}
	rec, err := st.Get(ctx, "fig1")
	if err != nil {
		t.Fatalf("cached Get() error: %v", err)
	}
	if rec.Document == nil || rec.Width != 640 {
		t.Errorf("cached record = %+v", rec)
	}

	// Put drops the cached copy.
	doc := testDocument(t, "fig1")
	doc.Width = 100
	if err := st.Put(ctx, NewRecord(doc)); err != nil {
		t.Fatal(err)
	}
	rec, err = st.Get(ctx, "fig1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Width != 100 {
		t.Errorf("Get() after Put width = %v, want 100", rec.Width)
	}
}
