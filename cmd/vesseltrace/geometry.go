//go:build !gocv

package main

import "github.com/banshee-data/vesseltrace/internal/vessel/geometry"

func newAdapter() geometry.Adapter {
	return geometry.Planar{}
}
