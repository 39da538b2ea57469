package storage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"todo/internal/logging"
)

type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendJSON   Backend = "json"
	BackendMemory Backend = "memory"
)

// ParseBackend accepts the config/flag spelling of a backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendSQLite, BackendJSON, BackendMemory:
		return b, nil
	case "":
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want sqlite, json or memory)", s)
	}
}

type OpenOptions struct {
	Backend Backend
	DBPath  string
	DataDir string
	Logger  *log.Logger
}

// OpenStore opens the backend named in opts.
//
// SQLite is the default; the JSON backend writes one file per key under
// DataDir; the memory backend keeps nothing across runs.
func OpenStore(opts OpenOptions) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	backend := opts.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		st, err := OpenSQLiteStore(opts.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened store", "backend", backend, "db", st.Path())
		return st, nil
	case BackendJSON:
		st, err := NewJSONStore(opts.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened store", "backend", backend, "dir", st.Dir)
		return st, nil
	case BackendMemory:
		logger.Debug("opened store", "backend", backend)
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
