package pipeline

import (
	"math"

	"github.com/paulmach/orb"
)

// SplitLine cuts a chain into chunks whose accumulated metric length stays
// within maxLenM.
//
// The walk accumulates edge lengths; when adding the next edge would push
// the running total past the limit, the current chunk is closed at the
// vertex before that edge and a new chunk begins at that same vertex, so
// consecutive chunks share a boundary point. A chunk always takes at least
// one edge, so a single edge longer than the limit still forms a chunk of
// its own. A chain under the limit yields exactly one chunk.
func SplitLine(p *Projection, line orb.LineString, maxLenM float64) ([]orb.LineString, error) {
	if len(line) < 2 {
		return nil, nil
	}

	projected, err := p.ProjectLine(line)
	if err != nil {
		return nil, err
	}

	var parts []orb.LineString
	cur := orb.LineString{line[0]}
	accum := 0.0

	for i := 1; i < len(line); i++ {
		edge := math.Hypot(projected[i][0]-projected[i-1][0], projected[i][1]-projected[i-1][1])
		if len(cur) > 1 && accum+edge > maxLenM {
			parts = append(parts, cur)
			cur = orb.LineString{line[i-1], line[i]}
			accum = edge
		} else {
			cur = append(cur, line[i])
			accum += edge
		}
	}

	if len(cur) >= 2 {
		parts = append(parts, cur)
	}
	return parts, nil
}

// Split applies max-length splitting to every chain.
func Split(p *Projection, lines []orb.LineString, maxLenM float64) ([]orb.LineString, error) {
	var out []orb.LineString
	for _, line := range lines {
		parts, err := SplitLine(p, line, maxLenM)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

// FilterMinLength keeps only lines whose metric length is at least minLenM.
//
// This removes residual stubs introduced by clipping or splitting. A
// non-positive minLenM keeps everything.
func FilterMinLength(p *Projection, lines []orb.LineString, minLenM float64) ([]orb.LineString, error) {
	if minLenM <= 0 {
		return lines, nil
	}
	out := make([]orb.LineString, 0, len(lines))
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		length, err := p.LengthMeters(line)
		if err != nil {
			return nil, err
		}
		if length >= minLenM {
			out = append(out, line)
		}
	}
	return out, nil
}
