/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration file handling for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/pkg/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

/* Settings are the CLI defaults loaded from a config file */
type Settings struct {
	URL    string `yaml:"url,omitempty"`
	Format string `yaml:"format,omitempty"`
}

/*
DefaultPath returns the standard CLI config location.
NEURONCHAT_CONFIG overrides it; otherwise ~/.neuronchat.yaml.
*/
func DefaultPath() string {
	if path := os.Getenv("NEURONCHAT_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".neuronchat.yaml")
}

/* Load reads settings from path. A missing file yields zero settings. */
func Load(path string) (*Settings, error) {
	settings := &Settings{}
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("config read failed: path='%s', error=%w", path, err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("config parsing failed: path='%s', error=%w", path, err)
	}
	return settings, nil
}
