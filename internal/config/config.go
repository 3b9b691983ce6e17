package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sharpsem/internal/logger"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "sharpsem.yaml"

type Config struct {
	Project struct {
		Root           string          `yaml:"root"`
		DefaultProgram string          `yaml:"default_program"`
		Programs       []ProgramConfig `yaml:"programs"`
		Ignore         []string        `yaml:"ignore"`
	} `yaml:"project"`
	Analysis struct {
		Workers     int           `yaml:"workers"`
		PassTimeout time.Duration `yaml:"pass_timeout"`
		Catalog     string        `yaml:"catalog"` // core-library catalog; empty uses the embedded one
		ImpactHops  int           `yaml:"impact_hops"`
	} `yaml:"analysis"`
	Log     logger.Config `yaml:"log"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
}

// ProgramConfig assigns the files under Prefixes to the program Name.
type ProgramConfig struct {
	Name     string   `yaml:"name"`
	Prefixes []string `yaml:"prefixes"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Project.DefaultProgram = "main"
	cfg.Log = logger.NewConfig()
	cfg.Storage.DB = "sharpsem.db"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config on top of the defaults; a missing file keeps them.
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg.Analysis.Catalog != "" && !filepath.IsAbs(cfg.Analysis.Catalog) {
			cfg.Analysis.Catalog = filepath.Join(filepath.Dir(path), cfg.Analysis.Catalog)
		}
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("SHARPSEM_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if level := os.Getenv("SHARPSEM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if db := os.Getenv("SHARPSEM_DB"); db != "" {
		cfg.Storage.DB = db
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers)
	}
	if c.Analysis.ImpactHops < 0 {
		return fmt.Errorf("analysis.impact_hops must not be negative, got %d", c.Analysis.ImpactHops)
	}
	if c.Analysis.PassTimeout < 0 {
		return fmt.Errorf("analysis.pass_timeout must not be negative")
	}
	if c.Project.DefaultProgram == "" {
		return errors.New("project.default_program must not be empty")
	}
	seen := make(map[string]string)
	for _, p := range c.Project.Programs {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("project.programs: program without a name")
		}
		for _, prefix := range p.Prefixes {
			if other, ok := seen[prefix]; ok && other != p.Name {
				return fmt.Errorf("project.programs: prefix %q assigned to both %s and %s", prefix, other, p.Name)
			}
			seen[prefix] = p.Name
		}
	}
	return nil
}

// ProgramPrefixes flattens the program list into a prefix → program map.
func (c *Config) ProgramPrefixes() map[string]string {
	out := make(map[string]string)
	for _, p := range c.Project.Programs {
		for _, prefix := range p.Prefixes {
			out[prefix] = p.Name
		}
	}
	return out
}
