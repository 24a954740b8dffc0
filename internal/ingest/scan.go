package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScannedFile is a PDF found under a scan root.
type ScannedFile struct {
	Path    string // Path as found on disk
	RelPath string // Path relative to its scan root, with forward slashes
	Folder  string // First directory of RelPath, "" for files directly under the root
}

// ScanPDFs walks the given roots and returns every .pdf file below them,
// sorted by path. A root that is a file is returned as is. Hidden
// directories are skipped.
func ScanPDFs(ctx context.Context, roots []string) ([]ScannedFile, error) {
	var files []ScannedFile
	for _, root := range roots {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, ScannedFile{Path: root, RelPath: filepath.Base(root)})
			continue
		}

		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return fmt.Errorf("failed to access path %s: %w", path, err)
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return nil
			}

			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
			}
			relPath = filepath.ToSlash(relPath)

			folder, _, found := strings.Cut(relPath, "/")
			if !found {
				folder = ""
			}
			files = append(files, ScannedFile{Path: path, RelPath: relPath, Folder: folder})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
