// Package geometry provides the contour, point and measurement primitives
// consumed by region growing and the network post-passes.
//
// Callers depend on the Adapter interface. Planar is the pure-Go
// implementation used by default; building with the gocv tag adds CV, an
// OpenCV-backed adapter with the same contract.
//
// Coordinates are pixel indices: X grows to the right, Y grows downwards.
// Contours are closed, ordered point sequences with unit steps between
// neighbouring points, as produced by ExternalContours.
package geometry
