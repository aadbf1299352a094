package depth

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Defaults for CameraIntrinsics.
const (
	DefaultFocalLength = 600.0
	DefaultDepthScale  = 0.001
)

// CameraIntrinsics holds the pinhole parameters of the depth sensor.
//
// U0 and V0 (principal point) are not used by the dimension formulas, which
// only rely on pixel extents; they are used when a pixel is back-projected to
// a 3D point.
type CameraIntrinsics struct {
	Fx         float64 `json:"fx" yaml:"focal_length_x"`
	Fy         float64 `json:"fy" yaml:"focal_length_y"`
	U0         float64 `json:"u0" yaml:"principal_x"`
	V0         float64 `json:"v0" yaml:"principal_y"`
	DepthScale float64 `json:"depth_scale" yaml:"depth_scale"`
}

// DefaultIntrinsics returns fx = fy = 600 and a millimeter-to-meter scale.
func DefaultIntrinsics() CameraIntrinsics {
	return CameraIntrinsics{
		Fx:         DefaultFocalLength,
		Fy:         DefaultFocalLength,
		DepthScale: DefaultDepthScale,
	}
}

// Validate rejects non-positive focal lengths and depth scale.
// It is meant for configuration loading, not for the per-call path.
func (c CameraIntrinsics) Validate() error {
	var errs []error
	if !(c.Fx > 0) {
		errs = append(errs, fmt.Errorf("focal length x must be positive, got %v", c.Fx))
	}
	if !(c.Fy > 0) {
		errs = append(errs, fmt.Errorf("focal length y must be positive, got %v", c.Fy))
	}
	if !(c.DepthScale > 0) {
		errs = append(errs, fmt.Errorf("depth scale must be positive, got %v", c.DepthScale))
	}
	return errors.Join(errs...)
}

// PixelToPoint back-projects pixel (x, y) at depth z (meters) into camera
// coordinates using the full pinhole model.
func (c CameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	return (x - c.U0) / c.Fx * z, (y - c.V0) / c.Fy * z, z
}

// DimensionResult is the physical extent of one ROI, in meters, rounded to
// millimeter precision.
type DimensionResult struct {
	Width  float64 `json:"width_m"`
	Height float64 `json:"height_m"`
	Depth  float64 `json:"depth_m"`
}

// Empty reports the "insufficient depth data" result.
func (d DimensionResult) Empty() bool {
	return d == DimensionResult{}
}

// CalculateDimensions converts a bounding box into physical width, height and
// mean distance using the pinhole model.
//
// # Algorithm
//
//  1. Extract the ROI [Y1,Y2) x [X1,X2); a box outside the image or with no
//     extent returns *InvalidRegionError.
//  2. Keep samples that are > 0 and finite. With none left the result is all
//     zeros and the error is nil.
//  3. Z = mean(valid samples) * DepthScale. The mean over the whole ROI is far
//     steadier than any single pixel.
//  4. W = (X2-X1) * Z / Fx and H = (Y2-Y1) * Z / Fy.
//  5. W, H and Z are rounded to 3 decimals.
//
// # Limitations
//
// Step 4 treats the box as a similar triangle at distance Z, which holds for
// surfaces roughly facing the camera. Oblique surfaces under- or over-estimate
// their extent; this is not corrected.
func CalculateDimensions(img *Image, box BoundingBox, intrinsics CameraIntrinsics) (DimensionResult, error) {
	region, err := ExtractRegion(img, box)
	if err != nil {
		return DimensionResult{}, err
	}
	if region.Empty() {
		return DimensionResult{}, nil
	}

	avgDepth := stat.Mean(region.Values, nil) * intrinsics.DepthScale

	realWidth := float64(box.Width()) * avgDepth / intrinsics.Fx
	realHeight := float64(box.Height()) * avgDepth / intrinsics.Fy

	return DimensionResult{
		Width:  roundMillis(realWidth),
		Height: roundMillis(realHeight),
		Depth:  roundMillis(avgDepth),
	}, nil
}

// roundMillis rounds a meter value to 3 decimal places.
func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
