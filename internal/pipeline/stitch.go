package pipeline

import (
	"github.com/paulmach/orb"
)

// segment is the stitching algorithm's working unit: a line whose endpoints
// have been snapped to cluster centroids. Each segment is consumed by
// exactly one chain.
type segment struct {
	coords orb.LineString
	start  int
	end    int
	used   bool
}

// stitcher holds the mutable bookkeeping for one stitching run: the segment
// pool and two indices mapping cluster id to the segments that start or end
// there. Segments are never removed from the index slices; the used flag
// marks consumption and lookups skip used entries.
type stitcher struct {
	segs    []segment
	byStart map[int][]int
	byEnd   map[int][]int
}

// Stitch snaps nearby line endpoints together and merges segments sharing
// snapped endpoints into maximal chains.
//
// Endpoints are clustered with snapTolM tolerance; each line's first and
// last coordinate are replaced by their cluster centroid so that touching
// segments meet at a literally equal coordinate. Centroids are resolved
// after all endpoints have been assigned, so late drift cannot leave two
// segments of one cluster with different junction coordinates.
//
// Chains are grown greedily in original input order: each unused segment
// starts a chain, which is extended forward from its end cluster and then
// backward from its start cluster until no unused segment matches. At every
// step a segment whose start matches is preferred over one whose end
// matches (the latter is appended reversed), and among several candidates
// the lowest original index wins. Every segment appears in exactly one
// output chain; a single-segment closed loop is emitted as-is.
func Stitch(p *Projection, lines []orb.LineString, snapTolM float64) ([]orb.LineString, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	clusterer := NewEndpointClusterer(p, snapTolM)

	type endpoints struct {
		start, end int
	}
	ids := make([]endpoints, 0, len(lines))
	valid := make([]orb.LineString, 0, len(lines))
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		startID, err := clusterer.Assign(line[0][0], line[0][1])
		if err != nil {
			return nil, err
		}
		endID, err := clusterer.Assign(line[len(line)-1][0], line[len(line)-1][1])
		if err != nil {
			return nil, err
		}
		ids = append(ids, endpoints{start: startID, end: endID})
		valid = append(valid, line)
	}

	st := &stitcher{
		segs:    make([]segment, len(valid)),
		byStart: make(map[int][]int),
		byEnd:   make(map[int][]int),
	}
	for i, line := range valid {
		coords := append(orb.LineString(nil), line...)
		lon, lat, err := clusterer.Center(ids[i].start)
		if err != nil {
			return nil, err
		}
		coords[0] = orb.Point{lon, lat}
		lon, lat, err = clusterer.Center(ids[i].end)
		if err != nil {
			return nil, err
		}
		coords[len(coords)-1] = orb.Point{lon, lat}

		st.segs[i] = segment{coords: coords, start: ids[i].start, end: ids[i].end}
		st.byStart[ids[i].start] = append(st.byStart[ids[i].start], i)
		st.byEnd[ids[i].end] = append(st.byEnd[ids[i].end], i)
	}

	stitched := make([]orb.LineString, 0, len(st.segs))
	for i := range st.segs {
		if st.segs[i].used {
			continue
		}

		chain := append(orb.LineString(nil), st.segs[i].coords...)
		startCluster := st.segs[i].start
		endCluster := st.segs[i].end
		st.segs[i].used = true

		// Extend forward from the chain's end cluster.
		for {
			j, forward, ok := st.pickNext(endCluster)
			if !ok {
				break
			}
			seg := &st.segs[j]
			if forward {
				chain = append(chain, seg.coords[1:]...)
				endCluster = seg.end
			} else {
				chain = appendReversed(chain, seg.coords[:len(seg.coords)-1])
				endCluster = seg.start
			}
			seg.used = true
		}

		// Extend backward from the chain's start cluster.
		for {
			j, forward, ok := st.pickNext(startCluster)
			if !ok {
				break
			}
			seg := &st.segs[j]
			if !forward {
				// Segment ends at the chain start: prepend it as-is.
				chain = prepend(seg.coords[:len(seg.coords)-1], chain)
				startCluster = seg.start
			} else {
				// Segment starts at the chain start: prepend it reversed.
				chain = prependReversed(seg.coords[1:], chain)
				startCluster = seg.end
			}
			seg.used = true
		}

		stitched = append(stitched, chain)
	}

	return stitched, nil
}

// pickNext returns the lowest-index unused segment touching the cluster.
// Segments starting at the cluster take precedence over segments ending
// there; forward reports which case matched.
func (st *stitcher) pickNext(cluster int) (idx int, forward bool, ok bool) {
	for _, i := range st.byStart[cluster] {
		if !st.segs[i].used {
			return i, true, true
		}
	}
	for _, i := range st.byEnd[cluster] {
		if !st.segs[i].used {
			return i, false, true
		}
	}
	return 0, false, false
}

// appendReversed appends the points of src to dst in reverse order.
func appendReversed(dst orb.LineString, src orb.LineString) orb.LineString {
	for i := len(src) - 1; i >= 0; i-- {
		dst = append(dst, src[i])
	}
	return dst
}

// prepend returns head followed by tail in a fresh slice.
func prepend(head orb.LineString, tail orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// prependReversed returns head reversed, followed by tail.
func prependReversed(head orb.LineString, tail orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(head)+len(tail))
	for i := len(head) - 1; i >= 0; i-- {
		out = append(out, head[i])
	}
	return append(out, tail...)
}
