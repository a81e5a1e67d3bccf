package collect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// File is one counter file read from a telemetry directory.
type File struct {
	Name    string
	Content string
}

// Source gives the collector read access to a counter tree. Paths are
// slash-separated.
type Source interface {
	// IsDir reports whether p is a directory, following symlinks. A missing
	// path returns an error wrapping fs.ErrNotExist.
	IsDir(ctx context.Context, p string) (bool, error)
	// ReadDir returns the entry names of a directory.
	ReadDir(ctx context.Context, p string) ([]string, error)
	// ReadFiles returns the regular files (symlinks followed) of a directory.
	ReadFiles(ctx context.Context, dir string) ([]File, error)
}

// LocalSource reads the local filesystem.
type LocalSource struct{}

// IsDir implements Source.
func (LocalSource) IsDir(_ context.Context, p string) (bool, error) {
	fi, err := os.Stat(filepath.FromSlash(p))
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// ReadDir implements Source.
func (LocalSource) ReadDir(_ context.Context, p string) ([]string, error) {
	entries, err := os.ReadDir(filepath.FromSlash(p))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// ReadFiles implements Source.
func (LocalSource) ReadFiles(ctx context.Context, dir string) ([]File, error) {
	local := filepath.FromSlash(dir)
	entries, err := os.ReadDir(local)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []File
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := filepath.Join(local, e.Name())
		fi, err := os.Stat(full)
		if err != nil {
			// dangling symlink
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", full, err)
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("reading counter %s: %w", full, err)
		}
		files = append(files, File{Name: e.Name(), Content: string(data)})
	}
	return files, nil
}

func sortFiles(files []File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
