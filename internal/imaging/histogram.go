package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// DefaultHistogramBins is the bin count used when none is given.
const DefaultHistogramBins = 50

// HistogramResult is a PNG chart of the depth distribution plus the counts
// behind it.
type HistogramResult struct {
	EncodedImage
	Bins         int       `json:"bins"`
	ValidSamples int       `json:"valid_samples"`
	MinMeters    float64   `json:"min_m"`
	MaxMeters    float64   `json:"max_m"`
	Counts       []float64 `json:"counts"`
}

// DepthHistogram plots the valid depths (in meters) inside box, or the whole
// image when box is nil.
func DepthHistogram(d *depth.Image, box *depth.BoundingBox, depthScale float64, bins int) (*HistogramResult, error) {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	region := depth.Box(0, 0, 0, 0)
	if d != nil {
		region = depth.Box(0, 0, d.Width, d.Height)
	}
	if box != nil {
		region = *box
	}
	sample, err := depth.ExtractRegion(d, region)
	if err != nil {
		return nil, err
	}
	if sample.Empty() {
		return nil, fmt.Errorf("no valid depth samples in %s", region)
	}

	values := make(plotter.Values, len(sample.Values))
	for i, v := range sample.Values {
		values[i] = v * depthScale
	}

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Depth distribution %s", region)
	p.X.Label.Text = "Depth (m)"
	p.Y.Label.Text = "Pixels"
	p.Add(h)

	const width, height = 6 * vg.Inch, 4 * vg.Inch
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode histogram: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to read histogram size: %w", err)
	}

	counts := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		counts[i] = b.Weight
	}
	lo, hi := floats.Min(values), floats.Max(values)

	return &HistogramResult{
		EncodedImage: EncodedImage{
			Width:       cfg.Width,
			Height:      cfg.Height,
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
			MimeType:    "image/png",
		},
		Bins:         len(h.Bins),
		ValidSamples: len(values),
		MinMeters:    roundTo(lo, 3),
		MaxMeters:    roundTo(hi, 3),
		Counts:       counts,
	}, nil
}
