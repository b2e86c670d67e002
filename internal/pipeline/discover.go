package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gallerize/internal/logging"
	"gallerize/internal/mediatypes"
)

// SourceFile is one discovered input file.
type SourceFile struct {
	Path string
	Base string
	Kind mediatypes.Kind
}

// Discover lists the supported media files directly under dir, in
// lexicographic order of their names. Hidden files, directories, and files
// with unsupported extensions are skipped.
func Discover(dir string) ([]SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	var files []SourceFile
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		kind := mediatypes.KindOf(entry.Name())
		if kind == mediatypes.KindOther {
			logging.Debug("skipping unsupported file %s", entry.Name())
			continue
		}
		files = append(files, SourceFile{
			Path: filepath.Join(dir, entry.Name()),
			Base: entry.Name(),
			Kind: kind,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Base < files[j].Base
	})
	return files, nil
}
