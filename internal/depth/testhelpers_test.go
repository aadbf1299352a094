package depth

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// constantImage returns a w x h image filled with v.
func constantImage(w, h int, v float64) *Image {
	img := NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// noisyImage returns base + round(eps*u), u uniform in [-1, 1), drawn from a
// fixed seed so that every eps sees the same noise pattern.
func noisyImage(t *testing.T, w, h int, base, eps float64, seed int64) *Image {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := NewImage(w, h)
	for i := range img.Pix {
		u := rng.Float64()*2 - 1
		img.Pix[i] = base + roundHalfAway(eps*u)
	}
	require.Equal(t, w*h, img.ValidCount())
	return img
}

func roundHalfAway(v float64) float64 {
	if v < 0 {
		return -float64(int(-v + 0.5))
	}
	return float64(int(v + 0.5))
}

func mustRows(t *testing.T, rows [][]float64) *Image {
	t.Helper()
	img, err := FromRows(rows)
	require.NoError(t, err)
	return img
}
