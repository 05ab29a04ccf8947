package handbook_ingester

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/siddu015/Camply/handbook_reader"
)

// Config holds the full handbook ingester configuration.
type Config struct {
	Listen              string `yaml:"listen"`
	DBPath              string `yaml:"db_path"`
	ObservabilityDBPath string `yaml:"observability_db_path"`

	// StorageRoot is the filesystem root storage paths resolve against.
	StorageRoot string `yaml:"storage_root"`

	// TempDir receives downloaded PDFs during a run. Empty means os.TempDir.
	TempDir string `yaml:"temp_dir"`

	MaxFileMB int `yaml:"max_file_mb"`

	// DownloadTimeoutSec and ProcessTimeoutSec bound the two pipeline phases.
	DownloadTimeoutSec int `yaml:"download_timeout_sec"`
	ProcessTimeoutSec  int `yaml:"process_timeout_sec"`

	Reader handbook_reader.Config `yaml:"reader"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:              ":8082",
		DBPath:              "handbooks.db",
		ObservabilityDBPath: "observability.db",
		StorageRoot:         "storage",
		MaxFileMB:           100,
		DownloadTimeoutSec:  60,
		ProcessTimeoutSec:   60,
		Reader: handbook_reader.Config{
			Parallelism: 4,
		},
	}
}

// LoadConfig reads and parses a YAML config file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.StorageRoot == "" {
		return fmt.Errorf("storage_root is required")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.DownloadTimeoutSec <= 0 {
		return fmt.Errorf("download_timeout_sec must be > 0")
	}
	if c.ProcessTimeoutSec <= 0 {
		return fmt.Errorf("process_timeout_sec must be > 0")
	}
	return nil
}

// MaxFileBytes returns max file size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }
