package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckStorageWritable validates the configured location before opening it.
//
// SQLite: the database's parent directory must exist (or be creatable) and be a directory.
// JSON: the data directory must exist (or be creatable) and accept a probe file.
// Memory: always fine.
func CheckStorageWritable(opts OpenOptions) error {
	switch opts.Backend {
	case BackendMemory:
		return nil
	case BackendJSON:
		return checkDirWritable(opts.DataDir)
	case BackendSQLite, "":
		if strings.TrimSpace(opts.DBPath) == "" {
			return errors.New("empty db path")
		}
		if st, err := os.Stat(opts.DBPath); err == nil && st.IsDir() {
			return fmt.Errorf("db path is a directory: %s", opts.DBPath)
		}
		return checkDirWritable(filepath.Dir(opts.DBPath))
	default:
		return fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func checkDirWritable(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty data dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
