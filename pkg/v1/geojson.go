package coastline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Lines extracts polylines from a feature collection.
//
// LineString geometries yield one line each, MultiLineString geometries one
// line per member. Other geometry types and polylines with fewer than 2
// points are silently skipped; malformed geometry is not an error at
// ingestion.
func Lines(fc *geojson.FeatureCollection) []orb.LineString {
	if fc == nil {
		return nil
	}

	var lines []orb.LineString
	for _, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}
		switch geom := feature.Geometry.(type) {
		case orb.LineString:
			if len(geom) >= 2 {
				lines = append(lines, geom)
			}
		case orb.MultiLineString:
			for _, line := range geom {
				if len(line) >= 2 {
					lines = append(lines, line)
				}
			}
		}
	}
	return lines
}

// Collection wraps chunks as a feature collection with one LineString
// feature per chunk.
//
// Each feature carries the source tag, a sequential segment_id, and a bbox
// property [lonMin, latMin, lonMax, latMax] computed from the chunk's own
// coordinates, so a renderer can prune to its viewport without decoding
// geometry.
func Collection(lines []orb.LineString, sourceName string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	id := 0
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		bound := line.Bound()

		feature := geojson.NewFeature(line)
		feature.Properties["source"] = sourceName
		feature.Properties["segment_id"] = id
		feature.Properties["bbox"] = []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
		fc.Append(feature)
		id++
	}

	return fc
}

// LoadCollection reads a GeoJSON feature collection from disk.
func LoadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// SaveCollection writes a feature collection to disk as compact GeoJSON
// (no extraneous whitespace), creating parent directories as needed.
func SaveCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
