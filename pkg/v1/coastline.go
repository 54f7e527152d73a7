package coastline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/beetlebugorg/coastline/internal/pipeline"
)

// ErrInvalidBBox indicates a bbox string that does not have exactly four
// comma-separated components. This is a configuration error and must be
// raised before the pipeline executes.
var ErrInvalidBBox = errors.New("bbox must be lonMin,latMin,lonMax,latMax")

// Params configures one pipeline run.
//
// All distance parameters are meters under the projection selected by EPSG.
// A single EPSG code covers every metric operation in the run; there is no
// per-stage override.
type Params struct {
	// BBox is the query region; lines whose bounding box falls entirely
	// outside it are dropped before any other processing.
	BBox orb.Bound

	// ToleranceM is the simplification threshold: an interior point is kept
	// only once it is at least this far from the previously kept point.
	ToleranceM float64

	// MinLengthM drops chunks shorter than this after splitting.
	MinLengthM float64

	// SnapTolM is the endpoint clustering tolerance for stitching.
	SnapTolM float64

	// MaxChunkLenM splits stitched chains longer than this.
	MaxChunkLenM float64

	// EPSG selects the metric reference system (WGS84 UTM zone).
	EPSG int

	// SourceName is written into every output feature's properties.
	SourceName string
}

// DefaultParams returns the parameters used for the Puget Sound viewer data.
func DefaultParams() Params {
	return Params{
		BBox: orb.Bound{
			Min: orb.Point{-123.5, 46.9},
			Max: orb.Point{-122.0, 49.1},
		},
		ToleranceM:   14.0,
		MinLengthM:   40.0,
		SnapTolM:     8.0,
		MaxChunkLenM: 900.0,
		EPSG:         32610,
		SourceName:   "WA_Ecology_viewer_prepped",
	}
}

// ParseBBox parses "lonMin,latMin,lonMax,latMax" into a bound.
//
// A spec with the wrong number of components or a non-numeric component
// returns an error wrapping ErrInvalidBBox.
func ParseBBox(spec string) (orb.Bound, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%q: %w", spec, ErrInvalidBBox)
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%q: %w", spec, ErrInvalidBBox)
		}
		vals[i] = v
	}

	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}

// Stats summarizes a set of lines: count, vertex count, and total planar
// length in degree space. Useful when tuning simplification parameters.
type Stats struct {
	Segments            int
	Points              int
	AvgPointsPerSegment float64
	TotalLengthDeg      float64
}

func convertStats(s pipeline.Stats) Stats {
	return Stats{
		Segments:            s.Segments,
		Points:              s.Points,
		AvgPointsPerSegment: s.AvgPointsPerSegment,
		TotalLengthDeg:      s.TotalLengthDeg,
	}
}

// LineStats returns summary statistics for a set of lines.
func LineStats(lines []orb.LineString) Stats {
	return convertStats(pipeline.ComputeStats(lines))
}

// CollectionStats returns summary statistics for the polylines of a
// feature collection.
func CollectionStats(fc *geojson.FeatureCollection) Stats {
	return LineStats(Lines(fc))
}

// Build runs the full pipeline over a raw shoreline collection and returns
// viewer-ready chunks: one LineString feature per chunk with a precomputed
// bounding box, a sequential segment_id, and the configured source tag.
//
// Stages run in fixed order: bbox filter, simplify, stitch, split, minimum
// length filter, feature emission. Identical input and parameters produce
// identical output.
//
// An unsupported Params.EPSG is fatal and returns before any stage runs.
func Build(fc *geojson.FeatureCollection, params Params) (*geojson.FeatureCollection, error) {
	return BuildWithTrace(fc, params, nil)
}

// BuildWithTrace is Build with a per-stage callback, invoked with the stage
// name and the statistics of its output. Used by the CLI to report data
// reduction as the pipeline progresses. A nil trace is ignored.
func BuildWithTrace(fc *geojson.FeatureCollection, params Params, trace func(stage string, stats Stats)) (*geojson.FeatureCollection, error) {
	proj, err := pipeline.NewProjection(params.EPSG)
	if err != nil {
		return nil, err
	}

	report := func(stage string, lines []orb.LineString) {
		if trace != nil {
			trace(stage, LineStats(lines))
		}
	}

	lines := Lines(fc)
	report("input", lines)

	lines = pipeline.Clip(lines, params.BBox)
	report("clip", lines)

	lines, err = pipeline.Simplify(proj, lines, params.ToleranceM, 0)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	report("simplify", lines)

	lines, err = pipeline.Stitch(proj, lines, params.SnapTolM)
	if err != nil {
		return nil, fmt.Errorf("stitch: %w", err)
	}
	report("stitch", lines)

	lines, err = pipeline.Split(proj, lines, params.MaxChunkLenM)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	report("split", lines)

	lines, err = pipeline.FilterMinLength(proj, lines, params.MinLengthM)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	report("filter", lines)

	return Collection(lines, params.SourceName), nil
}
