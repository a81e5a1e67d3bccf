// Package store persists collected snapshots, as JSON files or in Redis.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/netprof/netprof/pkg/snapshot"
)

// WriteAtomic writes path through a temporary file in the same directory and
// renames it into place. If write fails, path is left untouched.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// SaveFile writes records to path as an indented JSON array.
func SaveFile(path string, records []snapshot.Record) error {
	return WriteAtomic(path, func(w io.Writer) error {
		return snapshot.WriteJSON(w, records)
	})
}
