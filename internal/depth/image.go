package depth

import (
	"fmt"
	"image"
	"math"
)

// Image is a 2D grid of raw depth samples stored row-major.
//
// The sample for pixel (x, y) is Pix[y*Width+x]. Zero and non-finite values
// mean "no data".
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

// NewImage allocates a zero-filled (all invalid) depth image.
// Negative dimensions are treated as zero.
func NewImage(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// FromRows builds an image from row slices. All rows must have the same length.
func FromRows(rows [][]float64) (*Image, error) {
	if len(rows) == 0 {
		return NewImage(0, 0), nil
	}
	width := len(rows[0])
	img := NewImage(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d samples, want %d", y, len(row), width)
		}
		copy(img.Pix[y*width:(y+1)*width], row)
	}
	return img, nil
}

// FromGray16 converts a 16-bit grayscale image, the usual container for depth
// frames saved as PNG or TIFF.
func FromGray16(g *image.Gray16) *Image {
	bounds := g.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Pix[y*img.Width+x] = float64(g.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y)
		}
	}
	return img
}

// FromImage converts any decoded image into depth samples.
//
// Gray16 and Gray images keep their native values. Other color models are
// reduced to the 16-bit red channel, which is what single-channel depth
// encoders write when they emit RGB containers.
func FromImage(src image.Image) *Image {
	switch g := src.(type) {
	case *image.Gray16:
		return FromGray16(g)
	case *image.Gray:
		bounds := g.Bounds()
		img := NewImage(bounds.Dx(), bounds.Dy())
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Pix[y*img.Width+x] = float64(g.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
		return img
	}

	bounds := src.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, _, _, _ := src.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			img.Pix[y*img.Width+x] = float64(r)
		}
	}
	return img
}

// Bounds returns the image rectangle anchored at the origin.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Empty reports whether the image has zero area.
func (m *Image) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// In reports whether (x, y) lies inside the image.
func (m *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the raw sample at (x, y). The caller must stay in bounds.
func (m *Image) At(x, y int) float64 {
	return m.Pix[y*m.Width+x]
}

// Set stores a raw sample at (x, y). The caller must stay in bounds.
func (m *Image) Set(x, y int, v float64) {
	m.Pix[y*m.Width+x] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := NewImage(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// ValidCount returns the number of samples carrying depth data.
func (m *Image) ValidCount() int {
	n := 0
	for _, v := range m.Pix {
		if IsValid(v) {
			n++
		}
	}
	return n
}

// MinMax returns the smallest and largest valid samples. ok is false when the
// image holds no valid sample.
func (m *Image) MinMax() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Pix {
		if !IsValid(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	return lo, hi, true
}

// ToGray16 converts the samples back to a 16-bit image, saturating at the
// uint16 range. Non-finite samples become 0.
func (m *Image) ToGray16() *image.Gray16 {
	out := image.NewGray16(m.Bounds())
	for i, v := range m.Pix {
		var u uint16
		switch {
		case !IsValid(v):
			u = 0
		case v >= math.MaxUint16:
			u = math.MaxUint16
		default:
			u = uint16(math.Round(v))
		}
		out.Pix[2*i] = uint8(u >> 8)
		out.Pix[2*i+1] = uint8(u)
	}
	return out
}

// IsValid reports whether a raw sample carries depth data.
func IsValid(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
