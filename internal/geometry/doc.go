// Package geometry computes thumbnail scale and crop windows.
//
// All functions are pure: they operate on dimensions only and never touch
// pixels or files. The actual resizing and cropping is done by the transform
// package using the specs produced here.
package geometry
