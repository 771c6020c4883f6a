// Package region finds and segments a vessel cross-section on one slice.
//
// Locate searches outward from the previous target for the nearest bright
// pixel. Grower flood-fills from that pixel and applies the anomaly policy
// that keeps a leaking fill from swallowing neighbouring tissue.
package region
