package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	localFile = "scenectl.yaml"
	userFile  = "config.yaml"
)

// Load builds the effective configuration: defaults, then the config file,
// then command-line overrides. o may be nil.
func Load(o *Overrides) (*Config, error) {
	cfg := Default()

	path := findConfigFile()
	if o != nil && o.ConfigPath != "" {
		path = o.ConfigPath
	}
	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", path)
		}
	}
	o.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// searchPath lists the implicit config locations, most specific first.
func searchPath() []string {
	return []string{
		filepath.Join(".", localFile),
		filepath.Join(ConfigDir(), userFile),
	}
}

func findConfigFile() string {
	for _, p := range searchPath() {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir is where scenectl keeps its per-user configuration.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardScene")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "MidgardScene")
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "midgard-scene")
}

// decodeFile overlays the YAML in path onto cfg. Unknown keys are errors;
// an empty file changes nothing.
func decodeFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decoding yaml")
	}
	return nil
}
