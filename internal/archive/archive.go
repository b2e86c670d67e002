// Package archive aggregates retained originals into one downloadable zip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gallerize/internal/logging"
)

// Build writes a zip archive at dst containing the given files, with their
// paths stripped to basenames. It runs once per gallery, after retention
// decisions are final. Entries are stored uncompressed: the members are
// already-compressed media, and deflating them again buys nothing.
func Build(dst string, files []string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", dst, err)
	}

	logging.Debug("archived %d files into %s", len(files), dst)
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s for archiving: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Store

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}
