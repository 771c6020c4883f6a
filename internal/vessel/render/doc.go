// Package render turns a registry into voxel volumes.
//
// Responsibilities: one binary volume per surviving branch, filled from the
// branch's start depth towards depth 0; a volume holding the diagnostic
// overlay; writing volumes out as numbered PNG slices.
// Key types: Voxels, Renderer.
//
// Dependency rule: render reads registry and geometry; it never mutates a
// registry.
package render
