// Package meta extracts per-file media properties and derives capture
// timestamps.
//
// Images are read with a cheap header decode for dimensions and the dsoprea
// EXIF stack for orientation and timestamps: a structured per-format parser
// first, then a brute-force scan of the file. Videos go through ffprobe.
//
// Files without any capture timestamp receive a synthetic one from a
// batch-global monotonic counter. The counter is the only cross-item state
// in the analysis phase and is lock-protected; everything else flows by
// value.
package meta
