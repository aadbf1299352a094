package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// testDepth builds a w x h depth map: 1000 everywhere, 0 in the top-left
// 2x2 corner, 1500 in the bottom-right pixel.
func testDepth(w, h int) *depth.Image {
	d := depth.NewImage(w, h)
	for i := range d.Pix {
		d.Pix[i] = 1000
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			d.Set(x, y, 0)
		}
	}
	d.Set(w-1, h-1, 1500)
	return d
}

// writeDepthFile stores d as a 16-bit PNG in a temp dir and returns its path.
func writeDepthFile(t *testing.T, d *depth.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depth.png")
	if err := WriteDepthPNG(path, d); err != nil {
		t.Fatalf("WriteDepthPNG failed: %v", err)
	}
	return path
}

func TestDepthCache_Load_PNG16(t *testing.T) {
	cache := NewDepthCache()
	path := writeDepthFile(t, testDepth(20, 10))

	frame, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if frame.Format != "png" {
		t.Errorf("format = %q, want png", frame.Format)
	}
	if frame.Depth.Width != 20 || frame.Depth.Height != 10 {
		t.Errorf("unexpected dimensions: got %dx%d, want 20x10", frame.Depth.Width, frame.Depth.Height)
	}
	if got := frame.Depth.At(19, 9); got != 1500 {
		t.Errorf("At(19,9) = %v, want 1500", got)
	}
	if got := frame.Depth.At(0, 0); got != 0 {
		t.Errorf("At(0,0) = %v, want 0", got)
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != frame {
		t.Error("second Load did not return cached frame")
	}
}

func TestDepthCache_Load_TIFF16(t *testing.T) {
	g := image.NewGray16(image.Rect(0, 0, 4, 3))
	g.SetGray16(2, 1, color.Gray16{Y: 4321})

	path := filepath.Join(t.TempDir(), "depth.tiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := tiff.Encode(f, g, nil); err != nil {
		f.Close()
		t.Fatalf("failed to encode tiff: %v", err)
	}
	f.Close()

	frame, err := NewDepthCache().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if frame.Format != "tiff" {
		t.Errorf("format = %q, want tiff", frame.Format)
	}
	if got := frame.Depth.At(2, 1); got != 4321 {
		t.Errorf("At(2,1) = %v, want 4321", got)
	}
}

func TestDepthCache_Load_Gray8(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	g.SetGray(1, 1, color.Gray{Y: 77})

	path := filepath.Join(t.TempDir(), "gray.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(f, g); err != nil {
		f.Close()
		t.Fatalf("failed to encode png: %v", err)
	}
	f.Close()

	cache := NewDepthCache()
	frame, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := frame.Depth.At(1, 1); got != 77 {
		t.Errorf("At(1,1) = %v, want 77", got)
	}

	info, err := LoadDepthInfo(cache, path, 0.001)
	if err != nil {
		t.Fatalf("LoadDepthInfo failed: %v", err)
	}
	if info.BitDepth != 8 {
		t.Errorf("bit depth = %d, want 8", info.BitDepth)
	}
}

func TestDepthCache_Load_Errors(t *testing.T) {
	cache := NewDepthCache()
	if _, err := cache.Load("/nonexistent/path/to/depth.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads must not be cached, got %d entries", cache.Len())
	}
}

func TestDepthCache_ClearAndEvict(t *testing.T) {
	cache := NewDepthCache()
	a := writeDepthFile(t, testDepth(5, 5))
	b := writeDepthFile(t, testDepth(6, 6))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("Len after Evict = %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestDepthCache_ConcurrentAccess(t *testing.T) {
	cache := NewDepthCache()
	path := writeDepthFile(t, testDepth(30, 30))

	var wg sync.WaitGroup
	frames := make(chan *DepthFrame, 50)
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := cache.Load(path)
			if err != nil {
				errs <- err
				return
			}
			f.Denoised()
			frames <- f
		}()
	}

	wg.Wait()
	close(frames)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
	var first *DepthFrame
	for f := range frames {
		if first == nil {
			first = f
		} else if f != first {
			t.Error("concurrent loads returned different frames")
		}
	}
}

func TestDepthFrame_Select(t *testing.T) {
	path := writeDepthFile(t, testDepth(8, 8))
	frame, err := NewDepthCache().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if frame.Select(false) != frame.Depth {
		t.Error("Select(false) should return the raw image")
	}
	den := frame.Select(true)
	if den != frame.Denoised() {
		t.Error("Denoised should be computed once")
	}
	// The lone 1500 reading in the corner is an impulse.
	if got := den.At(7, 7); got != 1000 {
		t.Errorf("denoised At(7,7) = %v, want 1000", got)
	}
	if got := frame.Depth.At(7, 7); got != 1500 {
		t.Errorf("raw image modified: At(7,7) = %v", got)
	}
}

func TestLoadDepthInfo(t *testing.T) {
	cache := NewDepthCache()
	path := writeDepthFile(t, testDepth(10, 10))

	info, err := LoadDepthInfo(cache, path, 0.001)
	if err != nil {
		t.Fatalf("LoadDepthInfo failed: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"width", info.Width, 10},
		{"height", info.Height, 10},
		{"format", info.Format, "png"},
		{"bit depth", info.BitDepth, 16},
		{"valid pixels", info.ValidPixels, 96},
		{"valid fraction", info.ValidFraction, 0.96},
		{"min raw", info.MinRaw, 1000.0},
		{"max raw", info.MaxRaw, 1500.0},
		{"min m", info.MinMeters, 1.0},
		{"max m", info.MaxMeters, 1.5},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("file size = %d, want > 0", info.FileSizeBytes)
	}
}
