package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/google/uuid"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// EncodedImage is a rendered image ready to be returned to an MCP client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// SavedPath is set when the rendering was also written to disk.
	SavedPath string `json:"saved_path,omitempty"`
}

// Output formats accepted by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

const jpegQuality = 90

// Encode renders img as base64 PNG (the default) or JPEG.
func Encode(img image.Image, format string) (*EncodedImage, error) {
	enc, mime, err := encoderFor(format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}

func encoderFor(format string) (imgio.Encoder, string, error) {
	switch format {
	case "", FormatPNG:
		return imgio.PNGEncoder(), "image/png", nil
	case FormatJPEG, "jpg":
		return imgio.JPEGEncoder(jpegQuality), "image/jpeg", nil
	}
	return nil, "", fmt.Errorf("unsupported output format %q (expected png or jpeg)", format)
}

// SaveRendering writes img into dir as "<uuid>_<suffix>.png" and returns the
// file path. dir is created when missing.
func SaveRendering(dir, suffix string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", uuid.NewString(), suffix))
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

// WriteDepthPNG stores d as a 16-bit grayscale PNG. Samples are rounded and
// saturated to 0-65535; no-data samples are written as 0.
func WriteDepthPNG(path string, d *depth.Image) error {
	if err := imgio.Save(path, d.ToGray16(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write depth png: %w", err)
	}
	return nil
}
