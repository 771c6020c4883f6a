// Package sqlite persists traced registries in a SQLite database.
//
// A stored run is one registry snapshot: its branches and every area
// contour, plus the run kind (trace, merged or segmented) and the run it
// was derived from. The schema is managed with golang-migrate from
// migrations embedded in the binary.
package sqlite
