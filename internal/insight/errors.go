package insight

import "errors"

// ErrInvalidUserID is returned when an aggregation run is requested for an
// empty (nil) user ID. It is the only error ComputeInsights surfaces to
// callers; everything else degrades to a default-populated record.
var ErrInvalidUserID = errors.New("invalid user id")
