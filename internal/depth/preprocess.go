package depth

import (
	"image"
	"math"
	"slices"
)

// medianSize is the side of the Denoise window.
const medianSize = 3

// Denoise applies a 3x3 median filter and returns a new image.
//
// A median removes isolated dropouts and speckles without blurring the depth
// step at object boundaries, which matters because box edges become ROI edges.
// Windows that run off the image replicate the nearest edge sample, so every
// window ranks exactly nine samples. Non-finite samples rank as 0 ("no data");
// an invalid pixel stays invalid unless most of its neighbours carry data.
//
// An empty image yields an empty image.
func Denoise(img *Image) *Image {
	if img.Empty() {
		return NewImage(0, 0)
	}

	out := NewImage(img.Width, img.Height)
	r := medianSize / 2
	var window [medianSize * medianSize]float64

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			n := 0
			for ky := -r; ky <= r; ky++ {
				py := clamp(y+ky, 0, img.Height-1)
				for kx := -r; kx <= r; kx++ {
					px := clamp(x+kx, 0, img.Width-1)
					window[n] = rankable(img.Pix[py*img.Width+px])
					n++
				}
			}
			slices.Sort(window[:])
			out.Pix[y*img.Width+x] = window[len(window)/2]
		}
	}
	return out
}

// NormalizeForDisplay linearly maps the observed sample range onto 0-255.
//
// The minimum and maximum are taken over every finite sample, zeros included,
// so "no data" pixels render black on a normal scene. A constant image maps to
// all zeros. The input is left untouched and the output must never be fed
// back into a metric computation.
//
// An empty image yields an empty *image.Gray.
func NormalizeForDisplay(img *Image) *image.Gray {
	if img.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range img.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := image.NewGray(img.Bounds())
	if math.IsInf(lo, 1) {
		return out
	}

	var scale float64
	if hi-lo > 0 {
		scale = 255 / (hi - lo)
	}
	for i, v := range img.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Pix[i] = uint8(math.Round(clampF64((v-lo)*scale, 0, 255)))
	}
	return out
}

// rankable maps the no-data markers onto 0 so they sort below every reading.
func rankable(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in windowed operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func clampF64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
