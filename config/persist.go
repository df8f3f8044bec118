package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/burrowcms/burrow/errors"
)

// WriteDefault writes a config file populated with default values.
// Fails if the file already exists; an existing config is never clobbered.
func WriteDefault(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return errors.Newf("config file already exists: %s", configPath)
	}

	v := newDefaultViper()
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return errors.Wrap(err, "unmarshal defaults")
	}

	content, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshal default config")
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create config directory %s", dir)
		}
	}

	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", configPath)
	}

	return nil
}
