package pipeline

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
)

// wgs84 is the geographic reference system of all pipeline inputs and outputs.
const wgs84Proj4 = "+proj=longlat +datum=WGS84 +no_defs"

// Projection transforms WGS84 coordinates into a fixed metric reference
// system and back. Every metric computation in one pipeline run goes through
// a single Projection; mixing EPSG codes within a run is a configuration
// error, not something the pipeline detects or repairs.
//
// Both directions are deterministic for a fixed EPSG code and never mutate
// shared state, so a Projection is safe for concurrent use.
type Projection struct {
	epsg    int
	forward proj.Transformer
	inverse proj.Transformer
}

// NewProjection builds the forward and inverse transforms for an EPSG code.
//
// Supported codes are the WGS84 UTM zones: 32601-32660 (north) and
// 32701-32760 (south). Any other code returns *ErrUnsupportedProjection;
// callers must treat that as fatal before the pipeline runs.
func NewProjection(epsg int) (*Projection, error) {
	proj4, err := proj4ForEPSG(epsg)
	if err != nil {
		return nil, err
	}

	src, err := proj.Parse(wgs84Proj4)
	if err != nil {
		return nil, fmt.Errorf("parse WGS84 definition: %w", err)
	}
	dst, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("parse EPSG:%d definition: %w", epsg, err)
	}

	forward, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build forward transform for EPSG:%d: %w", epsg, err)
	}
	inverse, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("build inverse transform for EPSG:%d: %w", epsg, err)
	}

	return &Projection{epsg: epsg, forward: forward, inverse: inverse}, nil
}

// proj4ForEPSG maps an EPSG code to its PROJ.4 definition.
//
// UTM zones are expressed as transverse Mercator with the standard UTM
// parameters (k=0.9996, false easting 500km, central meridian -183+6*zone).
func proj4ForEPSG(epsg int) (string, error) {
	switch {
	case epsg >= 32601 && epsg <= 32660:
		zone := epsg - 32600
		return fmt.Sprintf(
			"+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=0 +datum=WGS84 +units=m +no_defs",
			-183+6*zone), nil
	case epsg >= 32701 && epsg <= 32760:
		zone := epsg - 32700
		return fmt.Sprintf(
			"+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=10000000 +datum=WGS84 +units=m +no_defs",
			-183+6*zone), nil
	}
	return "", &ErrUnsupportedProjection{Code: epsg}
}

// EPSG returns the configured reference system code.
func (p *Projection) EPSG() int {
	return p.epsg
}

// Forward projects a WGS84 coordinate into metric space.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	x, y, err = p.forward(lon, lat)
	if err != nil {
		return 0, 0, &ErrProjection{Lon: lon, Lat: lat, Err: err}
	}
	return x, y, nil
}

// Inverse converts a metric coordinate back to WGS84.
func (p *Projection) Inverse(x, y float64) (lon, lat float64, err error) {
	lon, lat, err = p.inverse(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("inverse project x=%f y=%f: %w", x, y, err)
	}
	return lon, lat, nil
}

// ProjectLine projects every vertex of a line into metric space.
func (p *Projection) ProjectLine(line orb.LineString) ([]orb.Point, error) {
	projected := make([]orb.Point, len(line))
	for i, pt := range line {
		x, y, err := p.Forward(pt[0], pt[1])
		if err != nil {
			return nil, err
		}
		projected[i] = orb.Point{x, y}
	}
	return projected, nil
}

// LengthMeters returns the metric length of a line under this projection.
//
// Lines with fewer than 2 points have zero length.
func (p *Projection) LengthMeters(line orb.LineString) (float64, error) {
	if len(line) < 2 {
		return 0, nil
	}
	projected, err := p.ProjectLine(line)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for i := 1; i < len(projected); i++ {
		total += math.Hypot(projected[i][0]-projected[i-1][0], projected[i][1]-projected[i-1][1])
	}
	return total, nil
}
