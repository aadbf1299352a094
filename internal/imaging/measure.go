package imaging

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// Point represents a 2D pixel position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DepthSample is the reading at one pixel.
type DepthSample struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Raw    float64 `json:"raw"`
	Meters float64 `json:"depth_m"`
	Valid  bool    `json:"valid"`

	// Camera-frame position in meters; zero when the sample is invalid.
	PointX float64 `json:"point_x_m"`
	PointY float64 `json:"point_y_m"`
	PointZ float64 `json:"point_z_m"`
}

// SampleDepth reads the depth at (x, y) and back-projects it through the
// pinhole model.
func SampleDepth(d *depth.Image, x, y int, in depth.CameraIntrinsics) (*DepthSample, error) {
	if d == nil || !d.In(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	raw := d.At(x, y)
	s := &DepthSample{X: x, Y: y}
	if !depth.IsValid(raw) {
		return s, nil
	}

	z := raw * in.DepthScale
	px, py, pz := in.PixelToPoint(float64(x), float64(y), z)
	s.Raw = raw
	s.Valid = true
	s.Meters = roundTo(z, 3)
	s.PointX = roundTo(px, 3)
	s.PointY = roundTo(py, 3)
	s.PointZ = roundTo(pz, 3)
	return s, nil
}

// DistanceResult contains a point-to-point measurement.
type DistanceResult struct {
	From Point `json:"from"`
	To   Point `json:"to"`

	DistancePixels float64 `json:"distance_pixels"`
	DeltaX         int     `json:"delta_x"`
	DeltaY         int     `json:"delta_y"`
	AngleDegrees   float64 `json:"angle_degrees"`

	// Metric fields need a valid depth at both ends.
	Valid          bool    `json:"valid"`
	DistanceMeters float64 `json:"distance_m"`
	DeltaXMeters   float64 `json:"delta_x_m"`
	DeltaYMeters   float64 `json:"delta_y_m"`
	DeltaZMeters   float64 `json:"delta_z_m"`
}

// MeasureDistance measures from p1 to p2 in pixels and, when both pixels
// carry depth, in meters along the straight 3D line between their
// back-projected points. The angle is 0 for rightward, 90 for downward.
func MeasureDistance(d *depth.Image, p1, p2 Point, in depth.CameraIntrinsics) (*DistanceResult, error) {
	a, err := SampleDepth(d, p1.X, p1.Y, in)
	if err != nil {
		return nil, err
	}
	b, err := SampleDepth(d, p2.X, p2.Y, in)
	if err != nil {
		return nil, err
	}

	deltaX := p2.X - p1.X
	deltaY := p2.Y - p1.Y
	pix := math.Hypot(float64(deltaX), float64(deltaY))
	angle := math.Atan2(float64(deltaY), float64(deltaX)) * 180 / math.Pi

	res := &DistanceResult{
		From:           p1,
		To:             p2,
		DistancePixels: roundTo(pix, 2),
		DeltaX:         deltaX,
		DeltaY:         deltaY,
		AngleDegrees:   roundTo(angle, 1),
	}
	if !a.Valid || !b.Valid {
		return res, nil
	}

	// Unrounded points keep millimeter accuracy of the result.
	ax, ay, az := in.PixelToPoint(float64(p1.X), float64(p1.Y), a.Raw*in.DepthScale)
	bx, by, bz := in.PixelToPoint(float64(p2.X), float64(p2.Y), b.Raw*in.DepthScale)
	from := []float64{ax, ay, az}
	to := []float64{bx, by, bz}

	res.Valid = true
	res.DistanceMeters = roundTo(floats.Distance(from, to, 2), 3)
	res.DeltaXMeters = roundTo(bx-ax, 3)
	res.DeltaYMeters = roundTo(by-ay, 3)
	res.DeltaZMeters = roundTo(bz-az, 3)
	return res, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
