package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Zuo-Peng/skirt-timeline/internal/logger"
)

type Config struct {
	SimRoot string        `toml:"sim_root"`
	DBPath  string        `toml:"db_path"`
	Workers int           `toml:"workers"`
	Logging logger.Config `toml:"logging"`
}

// Load reads ~/.config/pts/config.toml on top of the defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(home, ".config", "pts", "config.toml"), home)
}

// LoadFrom reads the config file at cfgPath. A missing file yields the defaults.
func LoadFrom(cfgPath, home string) (*Config, error) {
	cfg := &Config{
		SimRoot: filepath.Join(home, "SKIRT", "run"),
		DBPath:  filepath.Join(home, ".config", "pts", "pts.db"),
		Workers: 4,
		Logging: logger.Config{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	// expand ~ in paths
	cfg.SimRoot = expandHome(cfg.SimRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.Logging.Path = expandHome(cfg.Logging.Path, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
