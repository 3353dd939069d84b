package envconfig

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config struct {
	Home            string        `env:"RECIPE_HOME" envDefault:".recipe"`
	Jobs            int           `env:"RECIPE_JOBS"`
	Shell           string        `env:"RECIPE_SHELL" envDefault:"bash"`
	DownloadTimeout time.Duration `env:"RECIPE_DOWNLOAD_TIMEOUT" envDefault:"5m"`
	// Silent is any non-empty value of SILENT.
	Silent string `env:"SILENT"`
}

func (c Config) SilentMode() bool {
	return c.Silent != ""
}

// Load reads the tool configuration from environment variables.
// Home is made absolute since it ends up in configure --prefix.
func Load() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse env")
	}
	home, err := filepath.Abs(config.Home)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to resolve home %v", config.Home)
	}
	config.Home = home
	if config.Jobs <= 0 {
		config.Jobs = runtime.NumCPU()
	}
	return config, nil
}
