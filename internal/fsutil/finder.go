// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// FindFiles returns the files under root whose names end in one of the
// extensions, in lexical path order. Hidden entries (names starting with
// '.') are skipped, including whole hidden directories.
func FindFiles(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if slices.ContainsFunc(extensions, func(ext string) bool { return strings.HasSuffix(d.Name(), ext) }) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
