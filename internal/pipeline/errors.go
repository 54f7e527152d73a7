package pipeline

import (
	"fmt"
)

// ErrUnsupportedProjection indicates an EPSG code outside the supported
// metric reference systems. The pipeline refuses to fall back to a default
// because mixing reference systems corrupts every downstream distance.
type ErrUnsupportedProjection struct {
	Code int
}

func (e *ErrUnsupportedProjection) Error() string {
	return fmt.Sprintf("unsupported projection EPSG:%d (supported: WGS84 UTM, EPSG 32601-32660 and 32701-32760)", e.Code)
}

// ErrProjection indicates a coordinate could not be transformed.
type ErrProjection struct {
	Lon, Lat float64
	Err      error
}

func (e *ErrProjection) Error() string {
	return fmt.Sprintf("project lon=%f lat=%f: %v", e.Lon, e.Lat, e.Err)
}

func (e *ErrProjection) Unwrap() error {
	return e.Err
}

// ErrUnknownCluster indicates a cluster id that was never allocated.
type ErrUnknownCluster struct {
	ID int
}

func (e *ErrUnknownCluster) Error() string {
	return fmt.Sprintf("unknown cluster id %d", e.ID)
}
