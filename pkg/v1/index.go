package coastline

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ChunkIndex provides fast viewport queries over built shoreline chunks.
//
// The index stores each feature's bounding box in an R-tree, so a renderer
// can ask for the chunks visible in a viewport in O(log n) instead of
// scanning every feature. It is the runtime consumer of the bbox property
// the pipeline precomputes for every chunk.
//
// Example:
//
//	fc, _ := coastline.LoadCollection("data/shoreline_puget.geojson")
//	idx := coastline.NewChunkIndex(fc)
//
//	viewport := orb.Bound{
//	    Min: orb.Point{-122.6, 47.4},
//	    Max: orb.Point{-122.2, 47.8},
//	}
//	visible := idx.Query(viewport)
type ChunkIndex struct {
	rtree  *rtreego.Rtree
	chunks []*indexedChunk
}

// indexedChunk wraps a feature for R-tree storage.
type indexedChunk struct {
	feature *geojson.Feature
	bound   orb.Bound
}

// Bounds implements the rtreego.Spatial interface.
func (c *indexedChunk) Bounds() rtreego.Rect {
	return boundToRect(c.bound)
}

// boundToRect converts a geographic bound to an R-tree rectangle,
// enforcing the non-zero dimensions rtreego requires.
func boundToRect(bound orb.Bound) rtreego.Rect {
	const epsilon = 0.0001 // ~11 meters at the equator

	lonLength := bound.Max[0] - bound.Min[0]
	latLength := bound.Max[1] - bound.Min[1]
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	rect, _ := rtreego.NewRect(
		rtreego.Point{bound.Min[0], bound.Min[1]},
		[]float64{lonLength, latLength},
	)
	return rect
}

// NewChunkIndex builds an index over a collection's features.
//
// Each feature's bound comes from its bbox property when present (4-element
// [lonMin, latMin, lonMax, latMax]); otherwise it is computed from the
// geometry. Features without usable geometry are skipped.
func NewChunkIndex(fc *geojson.FeatureCollection) *ChunkIndex {
	idx := &ChunkIndex{
		rtree: rtreego.NewTree(2, 25, 50),
	}
	if fc == nil {
		return idx
	}

	for _, feature := range fc.Features {
		bound, ok := featureBound(feature)
		if !ok {
			continue
		}
		chunk := &indexedChunk{feature: feature, bound: bound}
		idx.chunks = append(idx.chunks, chunk)
		idx.rtree.Insert(chunk)
	}
	return idx
}

// NewChunkIndexFromFiles builds one index over several chunk files, loading
// each through the cache so repeated index builds reuse parsed collections.
func NewChunkIndexFromFiles(paths []string, cache *CollectionCache) (*ChunkIndex, error) {
	merged := geojson.NewFeatureCollection()
	for _, path := range paths {
		path := path
		fc, err := cache.Get(path, func() (*geojson.FeatureCollection, error) {
			return LoadCollection(path)
		})
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		merged.Features = append(merged.Features, fc.Features...)
	}
	return NewChunkIndex(merged), nil
}

// featureBound extracts a feature's bound, preferring the precomputed bbox
// property over the geometry.
func featureBound(feature *geojson.Feature) (orb.Bound, bool) {
	if feature == nil {
		return orb.Bound{}, false
	}

	if vals, ok := bboxProperty(feature.Properties["bbox"]); ok {
		return orb.Bound{
			Min: orb.Point{vals[0], vals[1]},
			Max: orb.Point{vals[2], vals[3]},
		}, true
	}

	if feature.Geometry == nil {
		return orb.Bound{}, false
	}
	return feature.Geometry.Bound(), true
}

// bboxProperty normalizes a bbox property value. In-memory collections
// carry []float64; collections decoded from JSON carry []interface{}.
func bboxProperty(value interface{}) ([4]float64, bool) {
	var out [4]float64
	switch vals := value.(type) {
	case []float64:
		if len(vals) != 4 {
			return out, false
		}
		copy(out[:], vals)
		return out, true
	case []interface{}:
		if len(vals) != 4 {
			return out, false
		}
		for i, v := range vals {
			f, ok := v.(float64)
			if !ok {
				return out, false
			}
			out[i] = f
		}
		return out, true
	}
	return out, false
}

// Query returns the features whose bound intersects the viewport.
func (idx *ChunkIndex) Query(viewport orb.Bound) []*geojson.Feature {
	spatials := idx.rtree.SearchIntersect(boundToRect(viewport))

	result := make([]*geojson.Feature, 0, len(spatials))
	for _, spatial := range spatials {
		chunk := spatial.(*indexedChunk)
		// The R-tree inflates degenerate rects; re-check the real bound.
		if chunk.bound.Intersects(viewport) {
			result = append(result, chunk.feature)
		}
	}
	return result
}

// Count returns the number of indexed features.
func (idx *ChunkIndex) Count() int {
	return len(idx.chunks)
}

// Bound returns the union of all indexed feature bounds.
func (idx *ChunkIndex) Bound() orb.Bound {
	if len(idx.chunks) == 0 {
		return orb.Bound{}
	}
	bound := idx.chunks[0].bound
	for _, chunk := range idx.chunks[1:] {
		bound = bound.Union(chunk.bound)
	}
	return bound
}
