// Package coastline converts noisy, overlapping shoreline polylines into a
// compact, render-ready set of line chunks with precomputed bounding boxes.
//
// Raw shoreline data from GIS services is far too dense for interactive
// rendering and arrives as thousands of short, overlapping fragments. The
// pipeline clips lines to a region of interest, thins vertices with a
// metric tolerance, snaps nearby endpoints together and stitches fragments
// into continuous chains, then splits the chains into chunks bounded by a
// maximum length. Each surviving chunk becomes one GeoJSON feature with a
// precomputed bbox, so a viewer can prune to its viewport without decoding
// geometry.
//
// # Basic Usage
//
//	raw, err := coastline.LoadCollection("data/shoreline_wa_ecology_raw.geojson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	chunks, err := coastline.Build(raw, coastline.DefaultParams())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := coastline.SaveCollection("data/shoreline_puget.geojson", chunks); err != nil {
//	    log.Fatal(err)
//	}
//
// # Fetching Raw Data
//
// Fetcher downloads shoreline polylines from an ArcGIS MapServer layer,
// chunked by object id with per-chunk retries:
//
//	fetcher := coastline.NewFetcher()
//	bbox, _ := coastline.ParseBBox("-123.5,46.9,-122.0,49.1")
//	raw, err := fetcher.FetchShoreline(bbox, coastline.DefaultFetchOptions())
//
// # Viewport Queries
//
// Built chunks carry bbox properties; ChunkIndex queries them with an
// R-tree:
//
//	idx := coastline.NewChunkIndex(chunks)
//	visible := idx.Query(orb.Bound{
//	    Min: orb.Point{-122.6, 47.4},
//	    Max: orb.Point{-122.2, 47.8},
//	})
//
// # Units and Reference Systems
//
// Input and output coordinates are WGS84 degrees in GeoJSON [lon, lat]
// order. Every distance parameter (tolerance, snap tolerance, chunk length,
// minimum length) is meters under the single UTM projection selected by
// Params.EPSG. An unsupported EPSG code fails the run before any stage
// executes; there is no fallback projection.
//
// # Determinism
//
// Identical input and parameters produce byte-identical output. Stage
// order, cluster assignment order, and the stitching tie-break rules are
// all fixed, so rebuilt datasets diff cleanly.
package coastline
