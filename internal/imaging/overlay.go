package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// DefaultOverlayColor is the box color used when none is given.
const DefaultOverlayColor = "#00FF00"

const boxThickness = 2

// Annotation is a box to draw with an optional caption.
type Annotation struct {
	Box   depth.BoundingBox
	Label string
}

// DrawAnnotations copies base and draws every box outline with its label
// above the box (inside it when the box touches the top edge).
//
// hexColor is "#RRGGBB"; empty selects DefaultOverlayColor. A box that does
// not fit base is an error, as everywhere else.
func DrawAnnotations(base image.Image, anns []Annotation, hexColor string) (*image.RGBA, error) {
	if hexColor == "" {
		hexColor = DefaultOverlayColor
	}
	c, err := colorful.Hex(hexColor)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hexColor, err)
	}
	fg := toRGBA(c)

	bounds := base.Bounds()
	for _, a := range anns {
		if err := a.Box.Validate(bounds.Dx(), bounds.Dy()); err != nil {
			return nil, err
		}
	}

	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), base, bounds.Min, draw.Src)

	labelColor := color.RGBA{0, 0, 0, 255}
	for _, a := range anns {
		drawRect(result, a.Box, fg)
		if a.Label == "" {
			continue
		}
		ly := a.Box.Y1 - labelHeight - 1
		if ly < 0 {
			ly = a.Box.Y1 + boxThickness + 1
		}
		drawLabel(result, a.Box.X1+1, ly, a.Label, labelColor, fg)
	}
	return result, nil
}

func drawRect(img *image.RGBA, b depth.BoundingBox, c color.RGBA) {
	for t := 0; t < boxThickness; t++ {
		for x := b.X1; x < b.X2; x++ {
			setClipped(img, x, b.Y1+t, c)
			setClipped(img, x, b.Y2-1-t, c)
		}
		for y := b.Y1; y < b.Y2; y++ {
			setClipped(img, b.X1+t, y, c)
			setClipped(img, b.X2-1-t, y, c)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

const (
	charWidth   = 4
	labelHeight = 7
)

// Simple 3x5 pixel font. Lowercase letters without a glyph of their own are
// drawn with the uppercase one.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'.': {"000", "000", "000", "000", "010"},
	'-': {"000", "000", "111", "000", "000"},
	':': {"000", "010", "000", "010", "000"},
	'_': {"000", "000", "000", "000", "111"},
	'%': {"101", "001", "010", "100", "101"},
	'x': {"000", "101", "010", "101", "000"},
	'm': {"000", "110", "111", "101", "101"},
	'A': {"010", "101", "111", "101", "101"},
	'B': {"110", "101", "110", "101", "110"},
	'C': {"011", "100", "100", "100", "011"},
	'D': {"110", "101", "101", "101", "110"},
	'E': {"111", "100", "110", "100", "111"},
	'F': {"111", "100", "110", "100", "100"},
	'G': {"011", "100", "101", "101", "011"},
	'H': {"101", "101", "111", "101", "101"},
	'I': {"111", "010", "010", "010", "111"},
	'J': {"001", "001", "001", "101", "010"},
	'K': {"101", "101", "110", "101", "101"},
	'L': {"100", "100", "100", "100", "111"},
	'M': {"101", "111", "111", "101", "101"},
	'N': {"110", "101", "101", "101", "101"},
	'O': {"010", "101", "101", "101", "010"},
	'P': {"110", "101", "110", "100", "100"},
	'Q': {"010", "101", "101", "110", "011"},
	'R': {"110", "101", "110", "101", "101"},
	'S': {"011", "100", "010", "001", "110"},
	'T': {"111", "010", "010", "010", "010"},
	'U': {"101", "101", "101", "101", "111"},
	'V': {"101", "101", "101", "101", "010"},
	'W': {"101", "101", "111", "111", "101"},
	'X': {"101", "101", "010", "101", "101"},
	'Y': {"101", "101", "010", "010", "010"},
	'Z': {"111", "001", "010", "100", "111"},
}

func glyphFor(ch rune) ([]string, bool) {
	if g, ok := glyphs[ch]; ok {
		return g, true
	}
	g, ok := glyphs[unicode.ToUpper(ch)]
	return g, ok
}

// drawLabel draws text with the 3x5 font on a filled background. Characters
// without a glyph leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	labelWidth := len([]rune(text)) * charWidth

	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphFor(ch)
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
