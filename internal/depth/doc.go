// Package depth implements the metrology core: depth-map preprocessing,
// physical dimension calculation and surface roughness estimation for a
// rectangular region of interest (ROI) reported by an external detector.
//
// # Depth Samples
//
// A depth Image stores raw sensor units (typically millimeters from a 16-bit
// depth camera) as float64 so that 16-bit and floating point sources share one
// representation. A sample of exactly 0, NaN or ±Inf means "no data". Only
// samples that are strictly positive and finite take part in a mean, variance
// or division.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner. A
// BoundingBox is half-open: (X1, Y1) is inclusive, (X2, Y2) is exclusive, so
// the ROI covers rows [Y1, Y2) and columns [X1, X2).
//
// # Border Handling
//
// Both windowed operations replicate the nearest edge sample (clamped
// replication) when a window extends past the grid:
//   - Denoise clamps against the full image edge.
//   - The roughness window clamps against the ROI edge, for both the depth
//     value and its validity, so the local mean and local variance passes
//     see exactly the same window membership.
//
// # Errors
//
// Only structurally invalid input is an error: a box outside the image or
// with zero or negative extent yields *InvalidRegionError. A valid box whose
// samples are all invalid (occlusion, hollow components) yields zero-valued
// results and a nil error; callers should read zero as "insufficient depth
// data", not as a failure.
//
// # Thread Safety
//
// All functions are pure. An Image may be shared between goroutines as long
// as nobody writes to it, which lets several boxes of one frame be analyzed
// in parallel (see Analyze).
package depth
