// Package pipeline implements the shoreline geometry pipeline: bbox
// filtering, metric-space simplification, endpoint clustering, chain
// stitching, and length-bounded splitting.
//
// Every stage is a pure transform from a slice of lines to a slice of lines.
// Lines are orb.LineString values in WGS84 degrees; all distance and length
// arithmetic happens in the metric space of a single Projection.
package pipeline

import (
	"math"

	"github.com/paulmach/orb"
)

// LengthDegrees returns the planar length of a line in degree space.
//
// This is only meaningful as a relative measure (tuning statistics); all
// thresholds in the pipeline use metric lengths under a Projection.
func LengthDegrees(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += math.Hypot(line[i][0]-line[i-1][0], line[i][1]-line[i-1][1])
	}
	return total
}

// Stats summarizes a set of lines, useful when tuning simplification.
type Stats struct {
	Segments            int
	Points              int
	AvgPointsPerSegment float64
	TotalLengthDeg      float64
}

// ComputeStats returns summary statistics for a set of lines.
func ComputeStats(lines []orb.LineString) Stats {
	if len(lines) == 0 {
		return Stats{}
	}

	points := 0
	totalLen := 0.0
	for _, line := range lines {
		points += len(line)
		totalLen += LengthDegrees(line)
	}

	return Stats{
		Segments:            len(lines),
		Points:              points,
		AvgPointsPerSegment: float64(points) / float64(len(lines)),
		TotalLengthDeg:      totalLen,
	}
}
