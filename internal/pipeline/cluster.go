package pipeline

import (
	"math"
)

// bucketKey identifies a spatial-hash grid cell of side snapTolM.
type bucketKey struct {
	X, Y int
}

// clusterCenter is a running centroid in metric space.
type clusterCenter struct {
	x, y  float64
	count float64
}

// EndpointClusterer groups nearby line endpoints in metric space so that
// endpoints within the snap tolerance of each other, regardless of which
// line they came from, share one stable integer identity.
//
// Internally it keeps a spatial hash of grid cells with side equal to the
// tolerance, a growable list of running centroids, and a reverse index from
// cluster id to its current cell. The reverse index exists because centroids
// drift as they absorb points and must be relocated between cells in O(1)
// rather than by rescanning every cell.
//
// Assignment is order dependent by construction (centroids drift), so a
// clusterer must be fed points in a fixed order to produce reproducible ids.
// It is not safe for concurrent use.
type EndpointClusterer struct {
	proj *Projection
	tol  float64
	cell float64

	centers      []clusterCenter
	buckets      map[bucketKey][]int
	centerBucket map[int]bucketKey
}

// NewEndpointClusterer creates a clusterer with the given snap tolerance in
// meters under the projection p.
func NewEndpointClusterer(p *Projection, snapTolM float64) *EndpointClusterer {
	return &EndpointClusterer{
		proj:         p,
		tol:          snapTolM,
		cell:         snapTolM,
		buckets:      make(map[bucketKey][]int),
		centerBucket: make(map[int]bucketKey),
	}
}

func (c *EndpointClusterer) bucketFor(x, y float64) bucketKey {
	return bucketKey{
		X: int(math.Round(x / c.cell)),
		Y: int(math.Round(y / c.cell)),
	}
}

// Assign maps a WGS84 endpoint to a cluster id.
//
// The 3x3 cell neighborhood around the point is scanned for the closest
// existing centroid within tolerance. Candidate order is fixed: cells in
// (dx, dy) order with dx moving slowest, then insertion order within a cell;
// a candidate wins only when strictly closer than the best so far. This
// makes assignment deterministic for equidistant candidates.
//
// A matching cluster absorbs the point by incremental mean; when the updated
// centroid crosses into a different cell the cluster is relocated in the
// spatial hash. If no cluster matches, a new one is allocated at the point.
func (c *EndpointClusterer) Assign(lon, lat float64) (int, error) {
	x, y, err := c.proj.Forward(lon, lat)
	if err != nil {
		return 0, err
	}

	key := c.bucketFor(x, y)
	tol2 := c.tol * c.tol
	bestID := -1
	bestD2 := math.Inf(1)

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, cid := range c.buckets[bucketKey{X: key.X + dx, Y: key.Y + dy}] {
				center := c.centers[cid]
				ddx := x - center.x
				ddy := y - center.y
				d2 := ddx*ddx + ddy*ddy
				if d2 <= tol2 && d2 < bestD2 {
					bestID = cid
					bestD2 = d2
				}
			}
		}
	}

	if bestID < 0 {
		cid := len(c.centers)
		c.centers = append(c.centers, clusterCenter{x: x, y: y, count: 1})
		c.buckets[key] = append(c.buckets[key], cid)
		c.centerBucket[cid] = key
		return cid, nil
	}

	center := c.centers[bestID]
	n := center.count + 1
	c.centers[bestID] = clusterCenter{
		x:     (center.x*center.count + x) / n,
		y:     (center.y*center.count + y) / n,
		count: n,
	}

	// Relocate if the centroid drifted into a different cell.
	newKey := c.bucketFor(c.centers[bestID].x, c.centers[bestID].y)
	oldKey := c.centerBucket[bestID]
	if newKey != oldKey {
		c.buckets[oldKey] = removeID(c.buckets[oldKey], bestID)
		c.buckets[newKey] = append(c.buckets[newKey], bestID)
		c.centerBucket[bestID] = newKey
	}

	return bestID, nil
}

// Center returns the current centroid of a cluster in WGS84 degrees.
func (c *EndpointClusterer) Center(id int) (lon, lat float64, err error) {
	if id < 0 || id >= len(c.centers) {
		return 0, 0, &ErrUnknownCluster{ID: id}
	}
	return c.proj.Inverse(c.centers[id].x, c.centers[id].y)
}

// Count returns the number of clusters allocated so far.
func (c *EndpointClusterer) Count() int {
	return len(c.centers)
}

// removeID deletes the first occurrence of id, preserving order.
func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
