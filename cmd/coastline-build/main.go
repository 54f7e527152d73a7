// Command coastline-build runs the shoreline pipeline over a raw GeoJSON
// dump and writes viewer-ready chunks: clipped, simplified, stitched into
// continuous chains, split into length-bounded pieces, each with a
// precomputed bbox.
package main

import (
	"flag"
	"fmt"
	"log"

	coastline "github.com/beetlebugorg/coastline/pkg/v1"
)

func main() {
	defaults := coastline.DefaultParams()

	var (
		in        = flag.String("in", "data/shoreline_wa_ecology_raw.geojson", "raw shoreline GeoJSON path")
		out       = flag.String("out", "data/shoreline_puget.geojson", "output GeoJSON path")
		bboxSpec  = flag.String("bbox", "-123.5,46.9,-122.0,49.1", "query region as lonMin,latMin,lonMax,latMax")
		tolerance = flag.Float64("tolerance", defaults.ToleranceM, "simplification tolerance in meters")
		minLength = flag.Float64("min-length", defaults.MinLengthM, "drop chunks shorter than this, meters")
		snapTol   = flag.Float64("snap-tolerance", defaults.SnapTolM, "endpoint snap tolerance for stitching, meters")
		maxChunk  = flag.Float64("max-chunk", defaults.MaxChunkLenM, "maximum chunk length in meters")
		epsg      = flag.Int("epsg", defaults.EPSG, "EPSG code of the metric reference system (WGS84 UTM)")
		source    = flag.String("source", defaults.SourceName, "source tag written into every feature")
	)
	flag.Parse()

	bbox, err := coastline.ParseBBox(*bboxSpec)
	if err != nil {
		log.Fatal(err)
	}

	params := coastline.Params{
		BBox:         bbox,
		ToleranceM:   *tolerance,
		MinLengthM:   *minLength,
		SnapTolM:     *snapTol,
		MaxChunkLenM: *maxChunk,
		EPSG:         *epsg,
		SourceName:   *source,
	}

	raw, err := coastline.LoadCollection(*in)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded %s: %d features\n", *in, len(raw.Features))

	chunks, err := coastline.BuildWithTrace(raw, params, func(stage string, stats coastline.Stats) {
		fmt.Printf("%-9s %6d segments  %8d points  avg %6.1f pts/segment\n",
			stage, stats.Segments, stats.Points, stats.AvgPointsPerSegment)
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := coastline.SaveCollection(*out, chunks); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s: %d chunks\n", *out, len(chunks.Features))
}
