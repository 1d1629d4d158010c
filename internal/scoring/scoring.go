// Package scoring maps a round's outcome to points.
package scoring

import (
	"math"

	"github.com/playperu/geogamer/internal/geogamer"
)

const (
	// NamingPoints is awarded for a correct name, whatever the attempts
	// left or the time elapsed.
	NamingPoints = 100

	// MaxLocationPoints is awarded for a marker placed exactly on target.
	MaxLocationPoints = 100

	// MaxDistance is the distance, in percentage units, from which a marker
	// earns nothing.
	MaxDistance = 100.0

	// MaxRoundPoints bounds a round total.
	MaxRoundPoints = NamingPoints + MaxLocationPoints
)

func Naming() int { return NamingPoints }

// Distance is the Euclidean distance between two points in percentage space.
func Distance(a, b geogamer.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Location scores a marker against the round's target: 100 on target,
// 0 at MaxDistance or beyond, linear in between.
func Location(marker, target geogamer.Point) int {
	return LocationForDistance(Distance(marker, target))
}

func LocationForDistance(d float64) int {
	if math.IsNaN(d) {
		return 0
	}
	points := MaxLocationPoints - d/MaxDistance*MaxLocationPoints
	points = math.Max(0, math.Min(MaxLocationPoints, points))
	return int(math.Round(points))
}

// RevealFrames returns the values shown while counting a score up over
// steps frames. The last frame is always exactly points.
func RevealFrames(points, steps int) []int {
	if steps < 1 {
		steps = 1
	}
	frames := make([]int, steps)
	increment := float64(points) / float64(steps)
	for i := 1; i < steps; i++ {
		frames[i-1] = int(math.Round(increment * float64(i)))
	}
	frames[steps-1] = points
	return frames
}
