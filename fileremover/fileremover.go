package fileremover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileRemover ...
type FileRemover interface {
	RemoveMatching(dir, pattern string) ([]string, error)
}

type fileRemover struct{}

// NewFileRemover ...
func NewFileRemover() FileRemover {
	return fileRemover{}
}

// RemoveMatching removes the regular files directly under dir whose name
// matches pattern and returns their paths. A missing dir is not an error.
func (r fileRemover) RemoveMatching(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern (%s): %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list (%s): %w", dir, err)
	}

	var removed []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
			continue
		}

		pth := filepath.Join(dir, entry.Name())
		if err := os.Remove(pth); err != nil {
			return removed, fmt.Errorf("failed to remove (%s): %w", pth, err)
		}
		removed = append(removed, pth)
	}

	return removed, nil
}
