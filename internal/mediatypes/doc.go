// Package mediatypes provides the extension allow-list used to classify
// gallery source files.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
package mediatypes
