package meta

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure"
	pngstructure "github.com/dsoprea/go-png-image-structure"
	tiffstructure "github.com/dsoprea/go-tiff-image-structure"
	riimage "github.com/dsoprea/go-utility/image"
)

type exifParser interface {
	Parse(rs io.ReadSeeker, size int) (ec riimage.MediaContext, err error)
}

func parserFor(ext string) exifParser {
	switch ext {
	case ".jpg", ".jpeg":
		return jpegstructure.NewJpegMediaParser()
	case ".png":
		return pngstructure.NewPngMediaParser()
	case ".tif", ".tiff":
		return tiffstructure.NewTiffMediaParser()
	default:
		// gif/webp have no structured parser; rely on brute-force search.
		return nil
	}
}

// exifFields extracts the flat EXIF tag map of an image: a structured
// per-format parse first, brute-force byte search as fallback.
func exifFields(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var exifData []byte
	if parser := parserFor(strings.ToLower(filepath.Ext(path))); parser != nil {
		if mc, err := parser.Parse(f, int(st.Size())); err == nil {
			_, exifData, _ = mc.Exif()
		}
	}

	if len(exifData) == 0 {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		exifData, err = exif.SearchAndExtractExifWithReader(f)
		if err != nil {
			if errors.Is(err, exif.ErrNoExif) {
				return nil, fmt.Errorf("no EXIF data")
			}
			return nil, err
		}
	}

	entries, _, err := exif.GetFlatExifData(exifData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EXIF block: %w", err)
	}

	fields := make(map[string]string, len(entries))
	for _, tag := range entries {
		if tag.TagName == "" {
			continue
		}
		value := strings.ReplaceAll(tag.FormattedFirst, "\x00", "")
		if value != "" {
			fields[tag.TagName] = value
		}
	}
	return fields, nil
}
