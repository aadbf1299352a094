package depth

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultWindowSize is the side of the roughness window. Smaller windows let
// sensor noise inflate the score; larger ones fold genuine fine texture into
// a broader neighbourhood average.
const DefaultWindowSize = 5

// RoughnessResult is the surface roughness of one ROI.
//
// Roughness is expressed in squared raw depth units (mm² for the default
// millimeter sensor); use Scaled for metric units.
type RoughnessResult struct {
	Roughness   float64 `json:"roughness"`
	WindowSize  int     `json:"window_size"`
	ValidPixels int     `json:"valid_pixels"`
}

// Scaled converts the roughness into squared meters (or whatever unit
// depthScale maps to).
func (r RoughnessResult) Scaled(depthScale float64) float64 {
	return r.Roughness * depthScale * depthScale
}

// EstimateRoughness scores surface micro-texture as the mean local depth
// variance over the valid pixels of the ROI.
//
// # Algorithm
//
//  1. Extract the ROI exactly as CalculateDimensions does. An invalid box
//     returns *InvalidRegionError; an ROI without valid samples returns a
//     zero result.
//  2. Keep the ROI in 2D with a validity mask. Invalid pixels contribute
//     neither to the window sums nor to the window counts.
//  3. For every pixel, the local mean over a windowSize x windowSize window:
//     mu = sum(D) / n, n being the number of valid pixels in the window.
//  4. The local variance around that mean: var = sum((D - mu)^2) / n,
//     evaluated as sum(D^2)/n - mu^2 on samples shifted by the ROI mean.
//  5. The roughness is the mean of var over the valid pixel positions.
//
// Window sums are separable box convolutions. Windows that cross the ROI edge
// replicate the edge row or column (values and validity alike).
//
// # Limitations
//
// Variance is isotropic: a grooved surface and a randomly pitted one with the
// same depth spread score the same.
func EstimateRoughness(img *Image, box BoundingBox, windowSize int) (RoughnessResult, error) {
	grid, err := extractGrid(img, box)
	if err != nil {
		return RoughnessResult{}, err
	}
	if windowSize < 1 {
		return RoughnessResult{}, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if grid.count == 0 {
		return RoughnessResult{WindowSize: windowSize}, nil
	}

	field := grid.localVariance(windowSize)

	var sum float64
	data := field.RawMatrix().Data
	for i, ok := range grid.valid {
		if ok {
			sum += data[i]
		}
	}

	return RoughnessResult{
		Roughness:   sum / float64(grid.count),
		WindowSize:  windowSize,
		ValidPixels: grid.count,
	}, nil
}

// LocalVarianceField returns the local variance of every ROI pixel as a
// matrix with one row per ROI row. Invalid positions hold 0. An ROI without
// valid samples yields an all-zero matrix.
func LocalVarianceField(img *Image, box BoundingBox, windowSize int) (*mat.Dense, error) {
	grid, err := extractGrid(img, box)
	if err != nil {
		return nil, err
	}
	if windowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if grid.count == 0 {
		return mat.NewDense(grid.height, grid.width, nil), nil
	}
	return grid.localVariance(windowSize), nil
}

func (g *maskedGrid) localVariance(k int) *mat.Dense {
	var ref float64
	for i, v := range g.values {
		if g.valid[i] {
			ref += v
		}
	}
	ref /= float64(g.count)

	shifted := mat.NewDense(g.height, g.width, nil)
	squared := mat.NewDense(g.height, g.width, nil)
	weights := mat.NewDense(g.height, g.width, nil)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			i := y*g.width + x
			if !g.valid[i] {
				continue
			}
			d := g.values[i] - ref
			shifted.Set(y, x, d)
			squared.Set(y, x, d*d)
			weights.Set(y, x, 1)
		}
	}

	sums := boxSum(shifted, k)
	sqSums := boxSum(squared, k)
	counts := boxSum(weights, k)

	variance := mat.NewDense(g.height, g.width, nil)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			n := counts.At(y, x)
			if !g.valid[y*g.width+x] || n == 0 {
				continue
			}
			mu := sums.At(y, x) / n
			v := sqSums.At(y, x)/n - mu*mu
			if v < 0 {
				v = 0
			}
			variance.Set(y, x, v)
		}
	}
	return variance
}

// boxSum convolves m with a k x k kernel of ones, as a horizontal pass
// followed by a vertical one. The window covers offsets [-k/2, k-1-k/2];
// samples past the edge replicate the nearest edge sample.
func boxSum(m *mat.Dense, k int) *mat.Dense {
	rows, cols := m.Dims()
	lo := k / 2
	hi := k - 1 - lo

	horiz := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var s float64
			for d := -lo; d <= hi; d++ {
				s += m.At(i, clamp(j+d, 0, cols-1))
			}
			horiz.Set(i, j, s)
		}
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var s float64
			for d := -lo; d <= hi; d++ {
				s += horiz.At(clamp(i+d, 0, rows-1), j)
			}
			out.Set(i, j, s)
		}
	}
	return out
}
