package pipeline

import (
	"github.com/paulmach/orb"
)

// SimplifyLine thins a line with a single forward pass in metric space.
//
// The first and last points are always kept. An interior point is kept only
// when its squared metric distance from the last kept point reaches
// toleranceM squared; otherwise it is discarded and the walk continues.
//
// This is a greedy along-line heuristic, not Douglas-Peucker: it can leave
// large perpendicular deviations uncorrected when the along-line distance
// test happens to pass. Lines with 2 points or fewer are returned as a copy.
func SimplifyLine(p *Projection, line orb.LineString, toleranceM float64) (orb.LineString, error) {
	if len(line) <= 2 {
		return append(orb.LineString(nil), line...), nil
	}

	projected, err := p.ProjectLine(line)
	if err != nil {
		return nil, err
	}

	out := orb.LineString{line[0]}
	last := projected[0]
	tol2 := toleranceM * toleranceM

	for i := 1; i < len(line)-1; i++ {
		dx := projected[i][0] - last[0]
		dy := projected[i][1] - last[1]
		if dx*dx+dy*dy >= tol2 {
			out = append(out, line[i])
			last = projected[i]
		}
	}

	out = append(out, line[len(line)-1])
	return out, nil
}

// Simplify thins every line and drops short remnants.
//
// After thinning, lines whose metric length falls below minLenM are removed
// entirely. minLenM <= 0 disables the length check.
func Simplify(p *Projection, lines []orb.LineString, toleranceM, minLenM float64) ([]orb.LineString, error) {
	out := make([]orb.LineString, 0, len(lines))
	for _, line := range lines {
		slim, err := SimplifyLine(p, line, toleranceM)
		if err != nil {
			return nil, err
		}
		if len(slim) < 2 {
			continue
		}
		if minLenM > 0 {
			length, err := p.LengthMeters(slim)
			if err != nil {
				return nil, err
			}
			if length < minLenM {
				continue
			}
		}
		out = append(out, slim)
	}
	return out, nil
}
