package region

import "errors"

// Common region errors
var (
	// ErrRegionClosed indicates that the region was closed
	ErrRegionClosed = errors.New("region is closed")

	// ErrObjectNotFound indicates that no object with the given id exists
	// in the region (or it was filtered out by the mapper)
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnknownRegionType indicates that no builder is registered
	// for the requested region type
	ErrUnknownRegionType = errors.New("unknown region type")
)
