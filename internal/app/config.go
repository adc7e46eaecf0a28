package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fracturelab/server/internal/engine"
	"fracturelab/server/logging"
)

// Config drives process wiring: the HTTP listener, the hub, and the logging
// router. Values load from an optional YAML file; a handful of environment
// variables override it at startup.
type Config struct {
	Addr           string                `yaml:"addr"`
	TickRate       int                   `yaml:"tickRate"`
	BroadcastEvery int                   `yaml:"broadcastEvery"`
	RefreshPeriod  int                   `yaml:"refreshPeriod"`
	Loading        string                `yaml:"loading"`
	LoadingSteps   int                   `yaml:"loadingSteps"`
	Specimen       engine.SpecimenConfig `yaml:"specimen"`
	Logging        logging.Config        `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Addr:    ":8080",
		Loading: "tension",
		Logging: logging.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}
