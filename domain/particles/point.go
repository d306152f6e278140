// Package particles turns lidar scans and mesh vertices into the packed
// raster buffers a GPU particle renderer consumes.
package particles

import (
	"github.com/golang/geo/r3"
)

// Color is a linear RGBA color with channels in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the color given to mesh vertices.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Point is a positioned, colored sample destined for particle rendering.
// The particle scale is uniform across a buffer and lives on the Packer.
type Point struct {
	Position r3.Vector
	Color    Color
}

// FromVertices turns mesh vertices into white points, preserving order.
func FromVertices(vertices []r3.Vector) []Point {
	points := make([]Point, len(vertices))
	for i, v := range vertices {
		points[i] = Point{Position: v, Color: White}
	}
	return points
}
