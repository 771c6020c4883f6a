// Package registry stores traced branches and the areas they own at each
// depth level.
//
// Responsibilities: branch identity (monotonic ids, never reused),
// per-branch target and statistics, per-depth area lists, the diagnostic
// overlay and text labels.
//
// Key types: Registry, Branch, Area, Label.
//
// Dependency rule: registry depends only on geometry and stats. Engine-side
// cursors live in the trace package, not here.
package registry
