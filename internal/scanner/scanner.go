package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScanDirectory lists the files directly inside root whose base name passes
// the eligible filter. Subdirectories are not descended into. Paths listed in
// skip (e.g. the main workbook when it lives in the same folder) are left out.
// The result is sorted lexicographically so runs process files in a stable
// order on every platform.
func ScanDirectory(root string, eligible func(name string) bool, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !eligible(entry.Name()) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if abs, err := filepath.Abs(path); err == nil && skipped[abs] {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}
