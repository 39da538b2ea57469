package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"todo/internal/logging"
	"todo/internal/storage"
	"todo/internal/todo"
)

type Storage struct {
	Backend string `yaml:"backend"`
	DBPath  string `yaml:"db_path"`
	DataDir string `yaml:"data_dir"`
}

type UI struct {
	// DefaultTab applies until a tab has been stored.
	DefaultTab string `yaml:"default_tab"`
	// ConfirmDestructive gates delete and toggle behind a y/n prompt.
	ConfirmDestructive *bool `yaml:"confirm_destructive"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Storage Storage `yaml:"storage"`
	UI      UI      `yaml:"ui"`
	Log     Log     `yaml:"log"`
}

// Load reads the config at path. A missing file is not an error: the
// defaults apply.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			// Empty file.
			return &cfg, nil
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	// Ensure there are no extra YAML documents.
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		return fmt.Errorf("storage.backend: %w", err)
	}
	if strings.TrimSpace(c.UI.DefaultTab) != "" {
		if _, err := todo.ParseCategory(c.UI.DefaultTab); err != nil {
			return fmt.Errorf("ui.default_tab must be WORK or TRAVEL, got %q", c.UI.DefaultTab)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Backend returns the configured backend, sqlite when unset.
func (c *Config) Backend() storage.Backend {
	b, err := storage.ParseBackend(c.Storage.Backend)
	if err != nil {
		return storage.BackendSQLite
	}
	return b
}

// DefaultTab returns the first-launch tab, WORK when unset.
func (c *Config) DefaultTab() todo.Category {
	cat, err := todo.ParseCategory(c.UI.DefaultTab)
	if err != nil {
		return todo.Work
	}
	return cat
}

func (c *Config) ConfirmDestructive() bool {
	if c.UI.ConfirmDestructive == nil {
		return true
	}
	return *c.UI.ConfirmDestructive
}

// Paths holds the resolved on-disk locations.
type Paths struct {
	Config  string
	DBPath  string
	DataDir string
	LogFile string
}

// DefaultPaths follows the XDG-style layout under home.
func DefaultPaths(home string) Paths {
	data := filepath.Join(home, ".local", "share", "todo")
	return Paths{
		Config:  filepath.Join(home, ".config", "todo", "todo-config.yaml"),
		DBPath:  filepath.Join(data, "todo.db"),
		DataDir: filepath.Join(data, "store"),
		LogFile: filepath.Join(home, ".local", "state", "todo", "todo.log"),
	}
}

// ExpandHome replaces a leading "~/" with home.
func ExpandHome(p, home string) string {
	p = strings.TrimSpace(p)
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

func MinimalExampleYAML() string {
	// Every key is optional.
	return `
storage:
  backend: sqlite          # sqlite | json | memory
  db_path: ~/.local/share/todo/todo.db
  data_dir: ~/.local/share/todo/store
ui:
  default_tab: WORK        # first launch only
  confirm_destructive: true
log:
  level: info
  file: ~/.local/state/todo/todo.log
`
}
