// Package manifest defines the gallery manifest written as data.json and
// its compact JSON encoding.
//
// The schema leans on heterogeneous arrays ("tuples") instead of objects to
// keep the file small, and omits every field whose value the viewer can
// infer: a thumbnail whose scaled and cropped sizes match carries no scaled
// size, a crop centered within a per-mille of the middle carries no center,
// a discarded original carries no file entry. Absence is a signal, not an
// accident.
package manifest
