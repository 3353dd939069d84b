package recipeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

func writeRecipe(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeRecipe(t, `{
		"name": "libjpeg",
		"exports": ["CMakeLists.txt"],
		"versions": {
			"9b": {"sha256": {"tar.gz": "abc"}, "windowsBackend": "cmake"},
			"9e": {}
		}
	}`)
	recipe, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if recipe.Name != "libjpeg" || len(recipe.Versions) != 2 {
		t.Fatalf("unexpected recipe %+v", recipe)
	}
	if got := recipe.Versions["9b"]; got.WindowsBackend != model.BackendCMake || got.SHA256[model.ArchiveTarGz] != "abc" {
		t.Fatalf("unexpected version %+v", got)
	}
	if want := filepath.Join(filepath.Dir(path), "CMakeLists.txt"); recipe.Exports[0] != want {
		t.Fatalf("export = %v, want %v", recipe.Exports[0], want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"no name":         `{"versions": {"9e": {}}}`,
		"no versions":     `{"name": "libjpeg"}`,
		"unknown kind":    `{"name": "libjpeg", "versions": {"9e": {"sha256": {"rar": "x"}}}}`,
		"unknown backend": `{"name": "libjpeg", "versions": {"9e": {"windowsBackend": "autotools"}}}`,
		"malformed":       `{`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeRecipe(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadShippedRecipe(t *testing.T) {
	recipe, err := Load(filepath.Join("..", "..", "..", "..", "..", "recipes", "libjpeg", "recipe.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, version := range []string{"9b", "9c", "9d", "9e"} {
		if _, ok := recipe.Versions[version]; !ok {
			t.Fatalf("expected version %v", version)
		}
	}
	if _, err = os.Stat(recipe.Exports[0]); err != nil {
		t.Fatalf("export missing: %v", err)
	}
}
