package index

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"photodup/internal/naming"
)

// collectImagePaths walks scanRoot and returns the absolute paths of every
// indexable image file, sorted case-insensitively by file name. Hidden
// directories, hidden files, and the trash directory are pruned.
func collectImagePaths(ctx context.Context, scanRoot, trashDirName string, exts map[string]struct{}) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(scanRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the
			// whole build.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == scanRoot {
				return nil
			}
			if strings.HasPrefix(name, ".") || name == trashDirName {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ok := exts[naming.Fold(filepath.Ext(name))]; !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", scanRoot, err)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return naming.Fold(filepath.Base(paths[i])) < naming.Fold(filepath.Base(paths[j]))
	})
	return paths, nil
}
