package profileconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

func TestLoadAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mingw.json")
	body := `{"settings": {"os": "Windows", "compiler": "gcc", "arch": "x86"}, "options": {"shared": true}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	loader := NewLoader()
	profile, err := loader.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	host := Job{Settings: DetectSettings("linux", "amd64")}
	job := Merge(host, profile)
	want := model.Settings{
		OS:        model.OSWindows,
		Arch:      model.ArchX86,
		Compiler:  model.CompilerGCC,
		BuildType: model.BuildTypeRelease,
	}
	if job.Settings != want {
		t.Fatalf("settings = %+v, want %+v", job.Settings, want)
	}
	if !job.Options().Shared {
		t.Fatal("expected shared option from profile")
	}

	if err = os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err = loader.Load(path); err != nil {
		t.Fatalf("expected cached profile: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestDetectSettings(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         model.Settings
	}{
		{"linux", "amd64", model.Settings{OS: model.OSLinux, Arch: model.ArchX86_64, Compiler: model.CompilerGCC, BuildType: model.BuildTypeRelease}},
		{"darwin", "arm64", model.Settings{OS: model.OSMacos, Arch: model.ArchArmv8, Compiler: model.CompilerAppleClang, BuildType: model.BuildTypeRelease}},
		{"windows", "386", model.Settings{OS: model.OSWindows, Arch: model.ArchX86, Compiler: model.CompilerVisualStudio, CompilerVersion: "17", BuildType: model.BuildTypeRelease}},
	}
	for _, tt := range tests {
		if got := DetectSettings(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("DetectSettings(%v, %v) = %+v, want %+v", tt.goos, tt.goarch, got, tt.want)
		}
		if err := tt.want.Validate(); err != nil {
			t.Errorf("detected settings invalid: %v", err)
		}
	}
}
