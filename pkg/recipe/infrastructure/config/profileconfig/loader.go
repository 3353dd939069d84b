package profileconfig

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/pkg/errors"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

type Settings struct {
	OS              string `json:"os,omitempty"`
	Arch            string `json:"arch,omitempty"`
	Compiler        string `json:"compiler,omitempty"`
	CompilerVersion string `json:"compiler.version,omitempty"`
	BuildType       string `json:"build_type,omitempty"`
}

type Options struct {
	Shared *bool `json:"shared,omitempty"`
}

type Profile struct {
	Settings Settings `json:"settings"`
	Options  Options  `json:"options"`
}

// Job is a partially specified job; empty fields fall back to host defaults.
type Job struct {
	Settings model.Settings
	Shared   *bool
}

func NewLoader() *Loader {
	return &Loader{cache: make(map[string]Job)}
}

type Loader struct {
	cache map[string]Job
}

func (l *Loader) Load(path string) (Job, error) {
	job, ok := l.cache[path]
	if ok {
		return job, nil
	}
	job, err := load(path)
	if err != nil {
		return Job{}, err
	}
	l.cache[path] = job
	return job, nil
}

func load(path string) (Job, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Job{}, errors.Wrapf(err, "failed to read profile file: %v", path)
	}
	var profile Profile
	err = json.Unmarshal(body, &profile)
	if err != nil {
		return Job{}, errors.Wrap(err, "failed to unmarshal profile")
	}
	return Job{
		Settings: model.Settings{
			OS:              profile.Settings.OS,
			Arch:            profile.Settings.Arch,
			Compiler:        profile.Settings.Compiler,
			CompilerVersion: profile.Settings.CompilerVersion,
			BuildType:       profile.Settings.BuildType,
		},
		Shared: profile.Options.Shared,
	}, nil
}

// Merge overlays the non-empty fields of override on base.
func Merge(base, override Job) Job {
	s := &base.Settings
	o := override.Settings
	if o.OS != "" {
		s.OS = o.OS
	}
	if o.Arch != "" {
		s.Arch = o.Arch
	}
	if o.Compiler != "" {
		s.Compiler = o.Compiler
	}
	if o.CompilerVersion != "" {
		s.CompilerVersion = o.CompilerVersion
	}
	if o.BuildType != "" {
		s.BuildType = o.BuildType
	}
	if override.Shared != nil {
		base.Shared = override.Shared
	}
	return base
}

func (j Job) Options() model.Options {
	return model.Options{Shared: j.Shared != nil && *j.Shared}
}

// HostSettings describes the machine the tool runs on.
func HostSettings() model.Settings {
	return DetectSettings(runtime.GOOS, runtime.GOARCH)
}

func DetectSettings(goos, goarch string) model.Settings {
	settings := model.Settings{BuildType: model.BuildTypeRelease}
	switch goos {
	case "windows":
		settings.OS, settings.Compiler, settings.CompilerVersion = model.OSWindows, model.CompilerVisualStudio, "17"
	case "darwin":
		settings.OS, settings.Compiler = model.OSMacos, model.CompilerAppleClang
	case "freebsd":
		settings.OS, settings.Compiler = model.OSFreeBSD, model.CompilerClang
	default:
		settings.OS, settings.Compiler = model.OSLinux, model.CompilerGCC
	}
	switch goarch {
	case "386":
		settings.Arch = model.ArchX86
	case "arm":
		settings.Arch = model.ArchArmv7
	case "arm64":
		settings.Arch = model.ArchArmv8
	default:
		settings.Arch = model.ArchX86_64
	}
	return settings
}
