package depth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Target is one detector box to analyze. Label and Confidence are carried
// through untouched for reporting.
type Target struct {
	Box        BoundingBox
	Label      string
	Confidence float64
}

// Options configures Analyze.
type Options struct {
	Intrinsics CameraIntrinsics
	WindowSize int // roughness window; DefaultWindowSize when <= 0
	Workers    int // parallel targets; GOMAXPROCS when <= 0
}

// Analysis is the combined metrology result for one target.
type Analysis struct {
	Index      int             `json:"index"`
	Label      string          `json:"label,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Box        BoundingBox     `json:"bbox"`
	Dimensions DimensionResult `json:"dimensions"`
	Roughness  RoughnessResult `json:"roughness"`

	// InsufficientData marks a box whose ROI held no valid depth sample.
	InsufficientData bool `json:"insufficient_data"`
}

// Analyze measures every target against the same depth image.
//
// Targets only read the shared image, so they run concurrently, bounded by
// opts.Workers. Results keep the order of targets. The first failing target
// (an *InvalidRegionError in practice) cancels the targets not yet started
// and its error is returned.
func Analyze(ctx context.Context, img *Image, targets []Target, opts Options) ([]Analysis, error) {
	window := opts.WindowSize
	if window <= 0 {
		window = DefaultWindowSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Analysis, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dims, err := CalculateDimensions(img, t.Box, opts.Intrinsics)
			if err != nil {
				return fmt.Errorf("target %d: %w", i, err)
			}
			rough, err := EstimateRoughness(img, t.Box, window)
			if err != nil {
				return fmt.Errorf("target %d: %w", i, err)
			}
			results[i] = Analysis{
				Index:            i,
				Label:            t.Label,
				Confidence:       t.Confidence,
				Box:              t.Box,
				Dimensions:       dims,
				Roughness:        rough,
				InsufficientData: rough.ValidPixels == 0,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
