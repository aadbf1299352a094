package depth

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	img := mustRows(t, [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 6.0, img.At(2, 1))

	_, err := FromRows([][]float64{{1, 2}, {3}})
	require.Error(t, err)

	empty, err := FromRows(nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestFromGray16RoundTrip(t *testing.T) {
	g := image.NewGray16(image.Rect(0, 0, 4, 3))
	g.SetGray16(1, 2, color.Gray16{Y: 1245})
	g.SetGray16(3, 0, color.Gray16{Y: 65535})

	img := FromGray16(g)
	assert.Equal(t, 1245.0, img.At(1, 2))
	assert.Equal(t, 65535.0, img.At(3, 0))
	assert.Equal(t, 2, img.ValidCount())

	back := img.ToGray16()
	assert.Equal(t, g.Pix, back.Pix)
}

func TestFromGray16_OffsetBounds(t *testing.T) {
	g := image.NewGray16(image.Rect(10, 20, 13, 22))
	g.SetGray16(10, 20, color.Gray16{Y: 7})

	img := FromGray16(g)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 7.0, img.At(0, 0))
}

func TestFromImage_Gray8(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.SetGray(1, 1, color.Gray{Y: 200})

	img := FromImage(g)
	assert.Equal(t, 200.0, img.At(1, 1))
	assert.Equal(t, 0.0, img.At(0, 0))
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want bool
	}{
		{"positive", 1245, true},
		{"tiny positive", 1e-9, true},
		{"zero", 0, false},
		{"negative", -3, false},
		{"nan", math.NaN(), false},
		{"+inf", math.Inf(1), false},
		{"-inf", math.Inf(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.v))
		})
	}
}

func TestMinMax(t *testing.T) {
	img := mustRows(t, [][]float64{
		{0, 900, math.NaN()},
		{1500, math.Inf(1), 1100},
	})
	lo, hi, ok := img.MinMax()
	require.True(t, ok)
	assert.Equal(t, 900.0, lo)
	assert.Equal(t, 1500.0, hi)

	_, _, ok = NewImage(3, 3).MinMax()
	assert.False(t, ok)
}

func TestToGray16_Saturates(t *testing.T) {
	img := mustRows(t, [][]float64{{-5, math.NaN(), 70000, 12.4}})
	g := img.ToGray16()
	assert.Equal(t, uint16(0), g.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(0), g.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(65535), g.Gray16At(2, 0).Y)
	assert.Equal(t, uint16(12), g.Gray16At(3, 0).Y)
}

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{"full image", Box(0, 0, 10, 8), false},
		{"inner", Box(2, 3, 5, 6), false},
		{"single pixel", Box(9, 7, 10, 8), false},
		{"x2 past edge", Box(0, 0, 11, 8), true},
		{"y2 past edge", Box(0, 0, 10, 9), true},
		{"negative origin", Box(-1, 0, 5, 5), true},
		{"fully outside", Box(20, 20, 30, 30), true},
		{"zero width", Box(4, 1, 4, 5), true},
		{"zero height", Box(1, 4, 5, 4), true},
		{"inverted", Box(6, 6, 2, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate(10, 8)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var regionErr *InvalidRegionError
			require.True(t, errors.As(err, &regionErr))
			assert.Equal(t, tt.box, regionErr.Box)
			assert.ErrorIs(t, err, ErrInvalidRegion)
		})
	}
}

func TestExtractRegion(t *testing.T) {
	img := mustRows(t, [][]float64{
		{1, 2, 3, 4},
		{5, 0, 7, 8},
		{9, math.NaN(), 11, 12},
	})

	region, err := ExtractRegion(img, Box(1, 0, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 7, 11}, region.Values)
	assert.Equal(t, 4, region.Count)
	assert.False(t, region.Empty())

	_, err = ExtractRegion(nil, Box(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidRegion)
}
