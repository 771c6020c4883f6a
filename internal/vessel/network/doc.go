// Package network post-processes a finished trace.
//
// Responsibilities: folding overlapping branches into one (Merge) and
// re-partitioning a registry into maximal unbranched segments
// (Segmentize). Both passes read a registry and return a fresh one; the
// input is never modified.
// Key types: MergeOptions, MergeReport.
//
// Dependency rule: network reads registry and geometry only.
package network
