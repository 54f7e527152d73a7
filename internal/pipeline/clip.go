package pipeline

import (
	"github.com/paulmach/orb"
)

// Clip keeps lines whose bounding box intersects the query bound.
//
// The test is coarse: a line is rejected only when its bounding box lies
// entirely outside the query on the longitude or latitude axis. A retained
// line is passed through unmodified even when most of its vertices fall
// outside the query; no per-vertex clipping occurs.
func Clip(lines []orb.LineString, bound orb.Bound) []orb.LineString {
	kept := make([]orb.LineString, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if line.Bound().Intersects(bound) {
			kept = append(kept, line)
		}
	}
	return kept
}
