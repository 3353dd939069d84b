package packager

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
)

const InfoFile = model.PackageInfoFile

func NewPackager(logger applogger.Logger) service.Packager {
	return &packager{logger: logger}
}

type packager struct {
	logger applogger.Logger
}

// Package assembles the package in a staging folder next to PackageFolder
// and only replaces the previous package once every rule succeeded.
func (p packager) Package(plan model.PackagePlan, info model.PackageInfo) error {
	if err := p.strip(plan); err != nil {
		return err
	}
	parent := filepath.Dir(plan.PackageFolder)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %v", parent)
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(plan.PackageFolder)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create staging folder")
	}
	defer os.RemoveAll(staging)
	if err = os.Chmod(staging, 0o755); err != nil {
		return errors.Wrapf(err, "failed to chmod %v", staging)
	}
	libs := 0
	for _, rule := range plan.Rules {
		copied, err := p.copy(rule, staging)
		if err != nil {
			return err
		}
		if copied == 0 {
			p.logger.Info(fmt.Sprintf("no files match %v in %v", rule.Pattern, rule.Src))
		}
		if rule.Dst == "lib" {
			libs += copied
		}
	}
	if libs == 0 {
		return fmt.Errorf("no libraries packaged for %v:%v", info.Reference, info.PackageID)
	}
	if err = writeInfo(staging, info); err != nil {
		return err
	}
	if err = os.RemoveAll(plan.PackageFolder); err != nil {
		return errors.Wrapf(err, "failed to clean package folder %v", plan.PackageFolder)
	}
	return errors.Wrapf(os.Rename(staging, plan.PackageFolder), "failed to move package into %v", plan.PackageFolder)
}

func (p packager) strip(plan model.PackagePlan) error {
	for _, pattern := range plan.Strip {
		matches, err := filepath.Glob(filepath.Join(plan.BuildFolder, filepath.FromSlash(pattern)))
		if err != nil {
			return errors.Wrapf(err, "invalid strip pattern %v", pattern)
		}
		for _, match := range matches {
			p.logger.Debug(fmt.Sprintf("strip %v", match))
			if err = os.RemoveAll(match); err != nil {
				return errors.Wrapf(err, "failed to strip %v", match)
			}
		}
	}
	return nil
}

type match struct {
	path string
	rel  string
}

func (p packager) copy(rule model.CopyRule, packageFolder string) (int, error) {
	src := filepath.FromSlash(rule.Src)
	var matches []match
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == src {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(rule.Pattern, d.Name())
		if err != nil || !ok {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		matches = append(matches, match{path: path, rel: rel})
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to collect %v from %v", rule.Pattern, rule.Src)
	}
	if rule.RenameTo != "" && len(matches) > 1 {
		return 0, fmt.Errorf("pattern %v matches %d files, can not rename to %v", rule.Pattern, len(matches), rule.RenameTo)
	}
	for _, m := range matches {
		name := filepath.Base(m.rel)
		if rule.RenameTo != "" {
			name = rule.RenameTo
		}
		dst := filepath.Join(packageFolder, filepath.FromSlash(rule.Dst), name)
		if rule.KeepPath {
			dst = filepath.Join(packageFolder, filepath.FromSlash(rule.Dst), filepath.Dir(m.rel), name)
		}
		if err = copyEntry(m.path, dst); err != nil {
			return 0, errors.Wrapf(err, "failed to copy %v", m.path)
		}
	}
	return len(matches), nil
}

func copyEntry(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		_ = os.Remove(dst)
		return os.Symlink(link, dst)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeInfo(packageFolder string, info model.PackageInfo) error {
	body, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal package info")
	}
	if err = os.MkdirAll(packageFolder, 0o755); err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(filepath.Join(packageFolder, InfoFile), body, 0o644), "failed to write package info")
}

// ReadInfo loads the package info written next to the packaged files.
func ReadInfo(packageFolder string) (model.PackageInfo, error) {
	body, err := os.ReadFile(filepath.Join(packageFolder, InfoFile))
	if err != nil {
		return model.PackageInfo{}, errors.Wrapf(err, "failed to read package info of %v", packageFolder)
	}
	var info model.PackageInfo
	if err = json.Unmarshal(body, &info); err != nil {
		return model.PackageInfo{}, errors.Wrap(err, "failed to unmarshal package info")
	}
	return info, nil
}
