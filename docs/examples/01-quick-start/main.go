package main

import (
	"fmt"
	"log"

	coastline "github.com/beetlebugorg/coastline/pkg/v1"
)

func main() {
	// Load raw shoreline dump
	raw, err := coastline.LoadCollection("shoreline_wa_ecology_raw.geojson")
	if err != nil {
		log.Fatal(err)
	}

	// Run the pipeline with the Puget Sound defaults
	chunks, err := coastline.Build(raw, coastline.DefaultParams())
	if err != nil {
		log.Fatal(err)
	}

	// Print reduction
	before := coastline.CollectionStats(raw)
	after := coastline.CollectionStats(chunks)
	fmt.Printf("Input:  %d segments, %d points\n", before.Segments, before.Points)
	fmt.Printf("Output: %d chunks, %d points\n", after.Segments, after.Points)

	// Write viewer-ready chunks
	if err := coastline.SaveCollection("shoreline_puget.geojson", chunks); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Wrote shoreline_puget.geojson")
}
