package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/packager"
)

func preparePackage(t *testing.T) string {
	t.Helper()
	folder := t.TempDir()
	files := map[string]string{
		"include/jpeglib.h": "jpeglib",
		"lib/libjpeg.a":     "archive",
	}
	for name, body := range files {
		path := filepath.Join(folder, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	info, err := json.Marshal(model.PackageInfo{
		Reference: model.Reference{Name: "libjpeg", Version: "9e"},
		PackageID: "0123456789abcdef",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err = os.WriteFile(filepath.Join(folder, packager.InfoFile), info, 0o644); err != nil {
		t.Fatal(err)
	}
	return folder
}

func TestArchiveRoundTrip(t *testing.T) {
	folder := preparePackage(t)
	out := filepath.Join(t.TempDir(), "exports", "libjpeg-9e"+Extension)
	size, err := NewArchiver(logger.NewTextLogger()).Archive(context.Background(), folder, out)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if size <= 0 {
		t.Fatalf("unexpected size %d", size)
	}
	file, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	names, err := List(file)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(names)
	want := []string{packager.InfoFile, "include/", "include/jpeglib.h", "lib/", "lib/libjpeg.a"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("entries = %v, want %v", names, want)
		}
	}
}

func TestArchiveRequiresPackageInfo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out"+Extension)
	if _, err := NewArchiver(logger.NewTextLogger()).Archive(context.Background(), t.TempDir(), out); err == nil {
		t.Fatal("expected folder without package info to fail")
	}
}

func TestArchiveHonoursCancellation(t *testing.T) {
	folder := preparePackage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "out"+Extension)
	if _, err := NewArchiver(logger.NewTextLogger()).Archive(ctx, folder, out); err == nil {
		t.Fatal("expected cancelled context to fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("expected partial archive to be removed")
	}
}
