// Package stats owns the numeric trackers carried by every traced branch.
//
// Responsibilities: cumulative radius statistics (RunningAverage) and the
// sliding-window intensity baseline (NestedAverage) used to gate region
// growing.
// Key types: RunningAverage, NestedAverage.
//
// Dependency rule: stats depends on nothing else in internal/vessel.
package stats
