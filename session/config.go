package session

import (
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// Config holds the ambient knobs the non-core CLI shell exposes. The only
// knob is the output directory; worker counts, the port declared to
// trackers and peer timeouts are not configurable here. The metainfo
// file path itself stays a plain CLI argument, per spec §6.
type Config struct {
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig is used when no config file is present.
var DefaultConfig = Config{OutputDir: "."}

// LoadConfig reads a YAML config file, expanding a leading "~" in its own
// OutputDir field. A missing file is not an error; DefaultConfig is
// returned instead, matching the teacher pack's config-loading idiom.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if cfg.OutputDir != "" {
		expanded, err := homedir.Expand(cfg.OutputDir)
		if err != nil {
			return cfg, err
		}
		cfg.OutputDir = expanded
	}
	return cfg, nil
}
