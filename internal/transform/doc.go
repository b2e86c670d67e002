// Package transform performs the pixel-level image operations of the
// pipeline: preview scaling, thumbnail cropping, and blur placeholders.
//
// Decoding uses libvips when available for its decode-time shrinking, which
// keeps memory flat on very large sources, and falls back to pure-Go
// decoding via the imaging package otherwise. All resizes run through a
// gamma 2.2 linearization so downscaling is sRGB-correct.
package transform
