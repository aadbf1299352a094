package depth

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRegion is matched by every *InvalidRegionError through errors.Is.
var ErrInvalidRegion = errors.New("invalid region")

// BoundingBox is a detector-supplied rectangle in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive).
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Box is shorthand for BoundingBox{x1, y1, x2, y2}.
func Box(x1, y1, x2, y2 int) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width is the horizontal pixel extent.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height is the vertical pixel extent.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Area is Width*Height; meaningless for degenerate boxes.
func (b BoundingBox) Area() int { return b.Width() * b.Height() }

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

// Validate checks the box against an image of the given size.
func (b BoundingBox) Validate(width, height int) error {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return &InvalidRegionError{Box: b, ImageWidth: width, ImageHeight: height, Reason: "degenerate extent"}
	}
	if b.X1 < 0 || b.Y1 < 0 || b.X2 > width || b.Y2 > height {
		return &InvalidRegionError{Box: b, ImageWidth: width, ImageHeight: height, Reason: "outside image bounds"}
	}
	return nil
}

// InvalidRegionError reports a bounding box that is degenerate or does not fit
// inside the depth image. Such boxes are never clamped; they usually point at
// a bug upstream in the detector.
type InvalidRegionError struct {
	Box         BoundingBox
	ImageWidth  int
	ImageHeight int
	Reason      string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region %s for %dx%d depth image: %s",
		e.Box, e.ImageWidth, e.ImageHeight, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidRegion) match.
func (e *InvalidRegionError) Is(target error) bool {
	return target == ErrInvalidRegion
}

// RegionSample holds the valid samples of one ROI in row-major order.
type RegionSample struct {
	Box    BoundingBox
	Values []float64
	Count  int
}

// Empty reports whether the ROI had no valid sample.
func (r RegionSample) Empty() bool {
	return r.Count == 0
}

// ExtractRegion validates the box and collects the valid samples inside it.
func ExtractRegion(img *Image, box BoundingBox) (RegionSample, error) {
	if img == nil {
		img = NewImage(0, 0)
	}
	if err := box.Validate(img.Width, img.Height); err != nil {
		return RegionSample{}, err
	}

	values := make([]float64, 0, box.Area())
	for y := box.Y1; y < box.Y2; y++ {
		row := img.Pix[y*img.Width+box.X1 : y*img.Width+box.X2]
		for _, v := range row {
			if IsValid(v) {
				values = append(values, v)
			}
		}
	}
	return RegionSample{Box: box, Values: values, Count: len(values)}, nil
}

// maskedGrid is the ROI kept in its 2D layout with a validity mask, so
// windowed statistics never need to rebuild the layout from a flat list.
type maskedGrid struct {
	width  int
	height int
	values []float64
	valid  []bool
	count  int
}

func extractGrid(img *Image, box BoundingBox) (*maskedGrid, error) {
	if img == nil {
		img = NewImage(0, 0)
	}
	if err := box.Validate(img.Width, img.Height); err != nil {
		return nil, err
	}

	g := &maskedGrid{
		width:  box.Width(),
		height: box.Height(),
		values: make([]float64, box.Area()),
		valid:  make([]bool, box.Area()),
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			v := img.At(box.X1+x, box.Y1+y)
			if IsValid(v) {
				g.values[y*g.width+x] = v
				g.valid[y*g.width+x] = true
				g.count++
			}
		}
	}
	return g, nil
}
