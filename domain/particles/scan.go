package particles

import (
	"math"

	"github.com/golang/geo/r3"
)

// ConvertScan turns polar range readings into Cartesian points.
//
// Reading r sits at angle -2π·r/len(ranges), clockwise with zero at index 0,
// and lands at (range·sin(angle), 0, range·cos(angle)). Only readings strictly
// inside (rangeMin, rangeMax) are kept; NaN and infinite readings fail that
// test and are dropped as well. Colors fade from red (near) to green (far).
func ConvertScan(ranges []float32, rangeMin, rangeMax float32) []Point {
	points := make([]Point, 0, len(ranges))
	n := float64(len(ranges))

	for r, reading := range ranges {
		if !(reading > rangeMin && reading < rangeMax) {
			continue
		}

		angle := -2 * math.Pi * float64(r) / n
		d := float64(reading)
		ratio := reading / rangeMax

		points = append(points, Point{
			Position: r3.Vector{X: d * math.Sin(angle), Y: 0, Z: d * math.Cos(angle)},
			Color:    Color{R: 1 - ratio, G: ratio, B: 0, A: 1},
		})
	}
	return points
}
