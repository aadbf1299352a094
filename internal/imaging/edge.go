package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// DefaultEdgeThreshold is the depth jump, in meters, that counts as an edge.
const DefaultEdgeThreshold = 0.05

// EdgeMap marks depth discontinuities: white where the depth jumps by at
// least the threshold, black elsewhere.
type EdgeMap struct {
	Image      *image.Gray
	EdgePixels int
	Threshold  float64
}

// DepthEdges finds object silhouettes in a depth map.
//
// # Algorithm
//
//  1. Depths are converted to meters with depthScale.
//  2. Sobel X and Y gradients over a 3x3 window, clamped at the image border.
//     Each gradient is divided by 4 so a clean step of h meters between two
//     columns (or rows) yields a magnitude of h on both sides of the step.
//  3. A pixel is an edge when the magnitude is >= threshold.
//
// Pixels whose window holds a no-data sample are never edges: a dropout next
// to a surface is missing data, not a discontinuity.
func DepthEdges(d *depth.Image, depthScale, threshold float64) (*EdgeMap, error) {
	if !(threshold > 0) {
		return nil, fmt.Errorf("edge threshold must be positive, got %v", threshold)
	}
	if d.Empty() {
		return &EdgeMap{Image: image.NewGray(image.Rect(0, 0, 0, 0)), Threshold: threshold}, nil
	}

	width, height := d.Width, d.Height
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	result := image.NewGray(image.Rect(0, 0, width, height))
	edges := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			complete := true
			for ky := -1; ky <= 1 && complete; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := d.At(clamp(x+kx, 0, width-1), clamp(y+ky, 0, height-1))
					if !depth.IsValid(v) {
						complete = false
						break
					}
					m := v * depthScale
					gx += m * sobelX[ky+1][kx+1]
					gy += m * sobelY[ky+1][kx+1]
				}
			}
			if !complete {
				continue
			}
			if math.Hypot(gx, gy)/4 >= threshold {
				result.SetGray(x, y, color.Gray{255})
				edges++
			}
		}
	}

	return &EdgeMap{Image: result, EdgePixels: edges, Threshold: threshold}, nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
