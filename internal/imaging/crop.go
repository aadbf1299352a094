package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// maxCropScale bounds the zoom of a crop so a small box cannot request an
// arbitrarily large rendering.
const maxCropScale = 16.0

// Crop cuts box out of a rendering and optionally scales it with a Lanczos
// filter. A scale of 0 or 1 keeps the native size.
func Crop(img image.Image, box depth.BoundingBox, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	if err := box.Validate(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	if scale < 0 || scale > maxCropScale {
		return nil, fmt.Errorf("scale must be in (0, %g], got %g", maxCropScale, scale)
	}

	r := box.Rect().Add(bounds.Min)
	var cropped image.Image = imaging.Crop(img, r)

	if scale != 0 && scale != 1 {
		w := max(1, int(float64(r.Dx())*scale))
		h := max(1, int(float64(r.Dy())*scale))
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped, nil
}

// CropDepth returns the samples inside box as a new depth image.
func CropDepth(d *depth.Image, box depth.BoundingBox) (*depth.Image, error) {
	if d == nil {
		d = depth.NewImage(0, 0)
	}
	if err := box.Validate(d.Width, d.Height); err != nil {
		return nil, err
	}
	out := depth.NewImage(box.Width(), box.Height())
	for y := box.Y1; y < box.Y2; y++ {
		copy(out.Pix[(y-box.Y1)*out.Width:(y-box.Y1+1)*out.Width], d.Pix[y*d.Width+box.X1:y*d.Width+box.X2])
	}
	return out, nil
}
