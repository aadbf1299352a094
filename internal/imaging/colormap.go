package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// Colormap names accepted by Render.
const (
	ColormapGray = "gray"
	ColormapHue  = "hue"
	ColormapHeat = "heat"
)

// Colormap maps an 8-bit display level to a color.
type Colormap struct {
	Name string
	lut  [256]color.RGBA
}

// At returns the color of level.
func (c *Colormap) At(level uint8) color.RGBA {
	return c.lut[level]
}

// NewColormap builds the named colormap.
//
//   - gray: identity ramp.
//   - hue: near is red, far is blue, sweeping hue through yellow and green.
//   - heat: black to dark red to orange to white, blended in HCL space.
func NewColormap(name string) (*Colormap, error) {
	if name == "" {
		name = ColormapGray
	}
	cm := Colormap{Name: name}
	switch name {
	case ColormapGray:
		for i := range cm.lut {
			cm.lut[i] = color.RGBA{uint8(i), uint8(i), uint8(i), 255}
		}
	case ColormapHue:
		for i := range cm.lut {
			cm.lut[i] = toRGBA(colorful.Hsv(240*float64(i)/255, 1, 1))
		}
	case ColormapHeat:
		stops := []colorful.Color{
			{R: 0, G: 0, B: 0},
			{R: 0.5, G: 0, B: 0},
			{R: 1, G: 0.55, B: 0},
			{R: 1, G: 1, B: 1},
		}
		segments := float64(len(stops) - 1)
		for i := range cm.lut {
			pos := float64(i) / 255 * segments
			k := int(math.Min(pos, segments-1))
			cm.lut[i] = toRGBA(stops[k].BlendHcl(stops[k+1], pos-float64(k)).Clamped())
		}
	default:
		return nil, fmt.Errorf("unknown colormap %q (expected gray, hue or heat)", name)
	}
	return &cm, nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// Render produces the display image of a depth map. Pixels without data are
// black in every colormap.
//
// The gray map shows NormalizeForDisplay as is. The color maps stretch the
// valid depth range over the whole ramp instead, because the zeros that
// NormalizeForDisplay includes would squeeze every reading into one end. With
// the hue map near surfaces are red and far ones blue.
func Render(d *depth.Image, cm *Colormap) *image.RGBA {
	gray := depth.NormalizeForDisplay(d)
	out := image.NewRGBA(gray.Bounds())
	if d.Empty() {
		return out
	}

	black := color.RGBA{0, 0, 0, 255}
	lo, hi, _ := d.MinMax()
	for i, level := range gray.Pix {
		x, y := i%d.Width, i/d.Width
		v := d.Pix[i]
		switch {
		case !depth.IsValid(v):
			out.SetRGBA(x, y, black)
		case cm.Name == ColormapGray:
			out.SetRGBA(x, y, cm.At(level))
		default:
			out.SetRGBA(x, y, cm.At(rangeLevel(v, lo, hi)))
		}
	}
	return out
}

func rangeLevel(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 0
	}
	return uint8(math.Round((v - lo) / (hi - lo) * 255))
}

// RenderField draws a scalar field (such as a local variance field) through
// cm, stretching [0, max] onto the colormap. Non-positive and non-finite
// entries render with level 0.
func RenderField(field *mat.Dense, cm *Colormap) *image.RGBA {
	rows, cols := field.Dims()
	out := image.NewRGBA(image.Rect(0, 0, cols, rows))

	var hi float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if v := field.At(y, x); !math.IsInf(v, 0) && v > hi {
				hi = v
			}
		}
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := field.At(y, x)
			var level uint8
			if hi > 0 && v > 0 && !math.IsInf(v, 0) {
				level = uint8(math.Round(math.Min(v/hi, 1) * 255))
			}
			out.SetRGBA(x, y, cm.At(level))
		}
	}
	return out
}
