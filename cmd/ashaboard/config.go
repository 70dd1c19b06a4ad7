package main

import (
	"fmt"
	"os"

	"github.com/ashaboard/ashaboard/pkg/config"
)

// loadConfig reads the config at path, or the nearest .ashaboard/config.yaml
// when path is empty. Environment overrides are applied on top.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(cwd)
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
