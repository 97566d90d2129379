package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/receipt-parser/constants"
)

// DirStats summarizes a directory scan or ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// ScanDirectory walks root and returns the receipt images under it in lexical order.
// includeExts narrows the accepted extensions; empty means every image type in
// constants.ImageMimeTypes. Unreadable entries are counted as failures and skipped.
func ScanDirectory(root string, includeExts []string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root_path is required")
	}

	exts := map[string]struct{}{}
	for _, e := range includeExts {
		e = constants.NormalizeExt(strings.TrimSpace(e))
		if _, ok := constants.ImageMimeTypes[e]; ok {
			exts[e] = struct{}{}
		}
	}
	if len(exts) == 0 {
		for e := range constants.ImageMimeTypes {
			exts[e] = struct{}{}
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !allowed(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
