package main

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"

	coastline "github.com/beetlebugorg/coastline/pkg/v1"
)

func main() {
	// Load built chunks
	chunks, err := coastline.LoadCollection("shoreline_puget.geojson")
	if err != nil {
		log.Fatal(err)
	}

	// Index chunk bounding boxes in an R-tree
	idx := coastline.NewChunkIndex(chunks)
	fmt.Printf("Indexed %d chunks\n", idx.Count())

	// Define viewport (Elliott Bay area)
	viewport := orb.Bound{
		Min: orb.Point{-122.45, 47.55},
		Max: orb.Point{-122.30, 47.65},
	}

	// Query R-tree index for visible chunks (O(log n))
	visible := idx.Query(viewport)

	fmt.Printf("Visible chunks: %d\n", len(visible))

	for _, feature := range visible {
		line := feature.Geometry.(orb.LineString)
		fmt.Printf("  segment %v: %d points\n",
			feature.Properties["segment_id"],
			len(line))
	}
}
