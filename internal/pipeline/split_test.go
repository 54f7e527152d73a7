package pipeline

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestSplitLineBoundedChunks(t *testing.T) {
	p := testProjection(t)

	// 1000m chain with a vertex every 100m, split at 410m: three chunks,
	// each within the limit, consecutive chunks sharing a boundary vertex.
	pts := make([][2]float64, 11)
	for i := range pts {
		pts[i] = [2]float64{float64(i) * 100, 0}
	}
	line := metricLine(t, p, pts...)

	chunks, err := SplitLine(p, line, 410)
	if err != nil {
		t.Fatalf("SplitLine: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk) < 2 {
			t.Fatalf("chunk %d has %d points", i, len(chunk))
		}
		length, err := p.LengthMeters(chunk)
		if err != nil {
			t.Fatalf("LengthMeters: %v", err)
		}
		if length > 410.01 {
			t.Errorf("chunk %d length %f exceeds limit", i, length)
		}
	}

	// Contiguity: chunk k's last point equals chunk k+1's first point.
	for i := 0; i < len(chunks)-1; i++ {
		last := chunks[i][len(chunks[i])-1]
		first := chunks[i+1][0]
		if last != first {
			t.Errorf("chunks %d/%d do not share a boundary vertex: %v vs %v", i, i+1, last, first)
		}
	}
}

func TestSplitLineUnderLimit(t *testing.T) {
	p := testProjection(t)

	line := metricLine(t, p, [2]float64{0, 0}, [2]float64{100, 0}, [2]float64{200, 0})
	chunks, err := SplitLine(p, line, 900)
	if err != nil {
		t.Fatalf("SplitLine: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !reflect.DeepEqual(chunks[0], line) {
		t.Errorf("chunk differs from input: %v", chunks[0])
	}
}

func TestSplitLineSingleLongEdge(t *testing.T) {
	p := testProjection(t)

	// One edge longer than the limit cannot be subdivided; it becomes a
	// chunk of its own.
	line := metricLine(t, p, [2]float64{0, 0}, [2]float64{1000, 0})
	chunks, err := SplitLine(p, line, 400)
	if err != nil {
		t.Fatalf("SplitLine: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Fatalf("expected a single 2-point chunk, got %v", chunks)
	}
}

func TestSplitLineDegenerate(t *testing.T) {
	p := testProjection(t)

	chunks, err := SplitLine(p, orb.LineString{metricPoint(t, p, 0, 0)}, 400)
	if err != nil {
		t.Fatalf("SplitLine: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("single-point line must yield no chunks, got %d", len(chunks))
	}
}

func TestFilterMinLength(t *testing.T) {
	p := testProjection(t)

	long := metricLine(t, p, [2]float64{0, 0}, [2]float64{100, 0})
	short := metricLine(t, p, [2]float64{0, 100}, [2]float64{20, 100})

	got, err := FilterMinLength(p, []orb.LineString{long, short}, 40)
	if err != nil {
		t.Fatalf("FilterMinLength: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 surviving line, got %d", len(got))
	}

	length, err := p.LengthMeters(got[0])
	if err != nil {
		t.Fatalf("LengthMeters: %v", err)
	}
	if math.Abs(length-100) > 0.01 {
		t.Errorf("survivor has length %f, want 100", length)
	}
}

func TestFilterMinLengthDisabled(t *testing.T) {
	p := testProjection(t)

	short := metricLine(t, p, [2]float64{0, 0}, [2]float64{1, 0})
	got, err := FilterMinLength(p, []orb.LineString{short}, 0)
	if err != nil {
		t.Fatalf("FilterMinLength: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("minLenM=0 must keep all lines, got %d", len(got))
	}
}
