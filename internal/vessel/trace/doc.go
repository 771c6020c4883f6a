// Package trace owns the depth-stepped exploration loop.
//
// Responsibilities: seeding root branches, per-branch cursors, the LIFO
// work queue drained once per depth, split detection with deferred
// confirmation, and reverse exploration from a manual seed.
// Key types: Engine, Config, Observer, Stats.
//
// Dependency rule: trace drives region and registry; it never reaches into
// network, storage or rendering.
package trace
