package recipeconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

type Version struct {
	SHA256         map[string]string `json:"sha256,omitempty"`
	WindowsBackend string            `json:"windowsBackend,omitempty"`
}

type Config struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	License      string             `json:"license"`
	URL          string             `json:"url"`
	DownloadBase string             `json:"downloadBase,omitempty"`
	Exports      []string           `json:"exports,omitempty"`
	Versions     map[string]Version `json:"versions"`
}

func Load(filePath string) (model.Recipe, error) {
	configFile, err := os.Open(filePath)
	if err != nil {
		return model.Recipe{}, errors.Wrapf(err, "failed to open recipe %v", filePath)
	}
	defer configFile.Close()
	configBody, err := io.ReadAll(configFile)
	if err != nil {
		return model.Recipe{}, errors.Wrapf(err, "failed to read recipe %v", filePath)
	}

	var config Config
	err = json.Unmarshal(configBody, &config)
	if err != nil {
		return model.Recipe{}, errors.Wrap(err, "failed to unmarshal recipe")
	}
	err = assertConfig(config)
	if err != nil {
		return model.Recipe{}, err
	}
	return MapToRecipe(config, filepath.Dir(filePath)), nil
}

// MapToRecipe resolves exports against the recipe directory.
func MapToRecipe(config Config, recipeDir string) model.Recipe {
	exports := make([]string, 0, len(config.Exports))
	for _, export := range config.Exports {
		if !filepath.IsAbs(export) {
			export = filepath.Join(recipeDir, export)
		}
		exports = append(exports, export)
	}
	versions := make(map[model.Version]model.RecipeVersion, len(config.Versions))
	for version, v := range config.Versions {
		versions[version] = model.RecipeVersion{
			Version:        version,
			SHA256:         v.SHA256,
			WindowsBackend: v.WindowsBackend,
		}
	}
	return model.Recipe{
		Name:         config.Name,
		Description:  config.Description,
		License:      config.License,
		URL:          config.URL,
		DownloadBase: config.DownloadBase,
		Exports:      exports,
		Versions:     versions,
	}
}

func assertConfig(config Config) error {
	if config.Name == "" {
		return errors.New("recipe name is empty")
	}
	if len(config.Versions) == 0 {
		return fmt.Errorf("recipe %v declares no versions", config.Name)
	}
	for version, v := range config.Versions {
		for kind := range v.SHA256 {
			if kind != model.ArchiveTarGz && kind != model.ArchiveZip {
				return fmt.Errorf("unexpected archive kind %v for version %v", kind, version)
			}
		}
		switch v.WindowsBackend {
		case "", model.BackendNMake, model.BackendMSBuild, model.BackendCMake:
		default:
			return fmt.Errorf("unexpected windows backend %v for version %v", v.WindowsBackend, version)
		}
	}
	return nil
}
