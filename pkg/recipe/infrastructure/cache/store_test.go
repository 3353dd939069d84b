package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
)

var _ service.PackageCache = (*Store)(nil)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(t *testing.T, version string, shared bool) model.PackageRecord {
	t.Helper()
	folder := t.TempDir()
	if err := os.WriteFile(filepath.Join(folder, model.PackageInfoFile), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	settings := model.Settings{
		OS: model.OSLinux, Arch: model.ArchX86_64, Compiler: model.CompilerGCC, CompilerVersion: "13", BuildType: model.BuildTypeRelease,
	}
	options := model.Options{Shared: shared}
	return model.PackageRecord{
		Reference:     model.Reference{Name: "libjpeg", Version: version},
		PackageID:     service.PackageID(settings, options),
		Settings:      settings,
		Options:       options,
		Libs:          []string{"jpeg"},
		PackageFolder: folder,
		CreatedAt:     time.UnixMilli(1700000000000).UTC(),
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	want := record(t, "9e", true)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Get(ctx, want.Reference, want.PackageID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected record")
	}
	if got.Reference != want.Reference || got.PackageID != want.PackageID || got.Settings != want.Settings {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.Options.Shared || len(got.Libs) != 1 || got.Libs[0] != "jpeg" {
		t.Fatalf("unexpected options or libs: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	_, ok, err := store.Get(context.Background(), model.Reference{Name: "libjpeg", Version: "9e"}, "deadbeef")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected no record")
	}
}

func TestGetIgnoresRemovedPackageFolder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	r := record(t, "9e", false)
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.RemoveAll(r.PackageFolder); err != nil {
		t.Fatal(err)
	}
	_, ok, err := store.Get(ctx, r.Reference, r.PackageID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected stale record to be ignored")
	}
}

func TestGetIgnoresPackageFolderWithoutInfo(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	r := record(t, "9e", false)
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.Remove(filepath.Join(r.PackageFolder, model.PackageInfoFile)); err != nil {
		t.Fatal(err)
	}
	_, ok, err := store.Get(ctx, r.Reference, r.PackageID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected incomplete package to be ignored")
	}
}

func TestSaveUpsertsAndLists(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	first := record(t, "9e", false)
	second := record(t, "9b", false)
	for _, r := range []model.PackageRecord{first, second, first} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Reference.Version != "9b" {
		t.Fatalf("expected ordered by reference, got %v first", records[0].Reference)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err = store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestExtractUpMigration(t *testing.T) {
	got := extractUpMigration("-- +migrate Up\nCREATE TABLE a(id);\n-- +migrate Down\nDROP TABLE a;")
	if got != "\nCREATE TABLE a(id);\n" {
		t.Fatalf("unexpected up migration %q", got)
	}
}
