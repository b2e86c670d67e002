// Package pipeline orchestrates a gallery build: it discovers the source
// media, runs the metadata analysis phase and the asset generation phase
// over a shared worker pool, and assembles the manifest.
package pipeline
