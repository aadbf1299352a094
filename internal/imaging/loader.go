package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// DepthFrame is one decoded depth file.
//
// Source keeps the decoded image as read from disk; Depth holds its samples
// as raw sensor units. Both are shared by every caller and must not be
// modified.
type DepthFrame struct {
	Path   string
	Format string // decoder name: "png", "tiff" or "jpeg"
	Source image.Image
	Depth  *depth.Image

	denoiseOnce sync.Once
	denoised    *depth.Image
}

// Denoised returns the 3x3 median filtered depth image, computed on first use.
func (f *DepthFrame) Denoised() *depth.Image {
	f.denoiseOnce.Do(func() {
		f.denoised = depth.Denoise(f.Depth)
	})
	return f.denoised
}

// Select returns the denoised or the raw depth image.
func (f *DepthFrame) Select(denoise bool) *depth.Image {
	if denoise {
		return f.Denoised()
	}
	return f.Depth
}

// DepthCache provides thread-safe caching of decoded depth files.
//
// Frames are keyed by the exact path string given to Load and stay in memory
// until Evict or Clear. The denoised image of a frame is cached with it.
type DepthCache struct {
	mu     sync.RWMutex
	frames map[string]*DepthFrame
}

// NewDepthCache creates an empty cache.
func NewDepthCache() *DepthCache {
	return &DepthCache{
		frames: make(map[string]*DepthFrame),
	}
}

// Load returns the cached frame for path or decodes it from disk.
//
// 16-bit grayscale PNG and TIFF files keep their native values. 8-bit
// grayscale files are read as 0-255. Color files use the 16-bit red channel,
// which is only meaningful for pictures used as overlay backgrounds.
func (c *DepthCache) Load(path string) (*DepthFrame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open depth image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode depth image: %w", err)
	}

	frame := &DepthFrame{
		Path:   path,
		Format: format,
		Source: img,
		Depth:  depth.FromImage(img),
	}

	c.mu.Lock()
	// Another goroutine may have won the race; keep the first frame.
	if existing, ok := c.frames[path]; ok {
		frame = existing
	} else {
		c.frames[path] = frame
	}
	c.mu.Unlock()

	return frame, nil
}

// Len reports the number of cached frames.
func (c *DepthCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear removes every frame from the cache.
func (c *DepthCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*DepthFrame)
	c.mu.Unlock()
}

// Evict removes one frame. Unknown paths are ignored.
func (c *DepthCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// DepthInfo describes a depth file and the spread of its samples.
type DepthInfo struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        string  `json:"format"`
	BitDepth      int     `json:"bit_depth"`
	FileSizeBytes int64   `json:"file_size_bytes"`
	ValidPixels   int     `json:"valid_pixels"`
	ValidFraction float64 `json:"valid_fraction"`
	MinRaw        float64 `json:"min_raw"`
	MaxRaw        float64 `json:"max_raw"`
	MinMeters     float64 `json:"min_m"`
	MaxMeters     float64 `json:"max_m"`
}

// LoadDepthInfo loads path through cache and reports its metadata. The
// meter range uses depthScale.
func LoadDepthInfo(cache *DepthCache, path string, depthScale float64) (*DepthInfo, error) {
	frame, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	d := frame.Depth
	info := &DepthInfo{
		Width:         d.Width,
		Height:        d.Height,
		Format:        frame.Format,
		BitDepth:      bitDepth(frame.Source),
		FileSizeBytes: stat.Size(),
		ValidPixels:   d.ValidCount(),
	}
	if n := d.Width * d.Height; n > 0 {
		info.ValidFraction = roundTo(float64(info.ValidPixels)/float64(n), 3)
	}
	if lo, hi, ok := d.MinMax(); ok {
		info.MinRaw, info.MaxRaw = lo, hi
		info.MinMeters = roundTo(lo*depthScale, 3)
		info.MaxMeters = roundTo(hi*depthScale, 3)
	}
	return info, nil
}

func bitDepth(img image.Image) int {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return 16
	}
	return 8
}
