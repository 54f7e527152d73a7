// Command coastline-fetch downloads raw shoreline polylines from an ArcGIS
// MapServer layer and writes them as a GeoJSON feature collection.
//
// The raw output is the input for coastline-build.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	coastline "github.com/beetlebugorg/coastline/pkg/v1"
)

func main() {
	var (
		bboxSpec   = flag.String("bbox", "-123.5,46.9,-122.0,49.1", "query region as lonMin,latMin,lonMax,latMax")
		out        = flag.String("out", "data/shoreline_wa_ecology_raw.geojson", "output GeoJSON path")
		queryURL   = flag.String("url", coastline.DefaultQueryURL, "ArcGIS MapServer layer query endpoint")
		chunkSize  = flag.Int("chunk", 500, "object ids per feature request")
		workers    = flag.Int("workers", 0, "parallel fetch workers (0 = number of CPUs)")
		sequential = flag.Bool("sequential", false, "fetch chunks one at a time")
		skipErrors = flag.Bool("skip-errors", false, "keep going when a chunk fails after retries")
	)
	flag.Parse()

	bbox, err := coastline.ParseBBox(*bboxSpec)
	if err != nil {
		log.Fatal(err)
	}

	fetcher := coastline.NewFetcher()
	fetcher.QueryURL = *queryURL
	fetcher.ChunkSize = *chunkSize

	opts := coastline.DefaultFetchOptions()
	opts.Parallel = !*sequential
	if *workers > 0 {
		opts.Workers = *workers
	}
	opts.SkipErrors = *skipErrors
	opts.ErrorLog = os.Stderr
	opts.Progress = func(done, total int) {
		fmt.Printf("\rFetched %d/%d chunks", done, total)
		if done == total {
			fmt.Println()
		}
	}

	fmt.Printf("Querying %s\n", fetcher.QueryURL)
	fc, err := fetcher.FetchShoreline(bbox, opts)
	if err != nil {
		log.Fatal(err)
	}

	stats := coastline.CollectionStats(fc)
	fmt.Printf("Fetched %d features (%d points)\n", len(fc.Features), stats.Points)

	if err := coastline.SaveCollection(*out, fc); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s\n", *out)
}
