package detection

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

// Detection is one detector box.
type Detection struct {
	Box        depth.BoundingBox `json:"bbox"`
	ClassID    int               `json:"class_id"`
	ClassName  string            `json:"class_name,omitempty"`
	Confidence float64           `json:"confidence"`
}

// Label is the class name, or "class <id>" when the name is unknown.
func (d Detection) Label() string {
	if d.ClassName != "" {
		return d.ClassName
	}
	return fmt.Sprintf("class %d", d.ClassID)
}

// Targets converts detections into analysis targets, keeping their order.
func Targets(dets []Detection) []depth.Target {
	targets := make([]depth.Target, len(dets))
	for i, d := range dets {
		targets[i] = depth.Target{Box: d.Box, Label: d.Label(), Confidence: d.Confidence}
	}
	return targets
}

// rawDetection accepts every supported JSON spelling of a detection.
type rawDetection struct {
	BBox       json.RawMessage `json:"bbox"`
	X          *float64        `json:"x"`
	Y          *float64        `json:"y"`
	Width      *float64        `json:"width"`
	Height     *float64        `json:"height"`
	ClassID    int             `json:"class_id"`
	ClassName  string          `json:"class_name"`
	Class      string          `json:"class"`
	Label      string          `json:"label"`
	Confidence *float64        `json:"confidence"`
	Conf       *float64        `json:"conf"`
}

// ParseJSON decodes a JSON detection list.
func ParseJSON(data []byte) ([]Detection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty detection data")
	}

	var raws []rawDetection
	if data[0] == '{' {
		var wrapped struct {
			Detections []rawDetection `json:"detections"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid detection JSON: %w", err)
		}
		raws = wrapped.Detections
	} else if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("invalid detection JSON: %w", err)
	}

	dets := make([]Detection, 0, len(raws))
	for i, r := range raws {
		d, err := r.detection()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		dets = append(dets, d)
	}
	return dets, nil
}

func (r rawDetection) detection() (Detection, error) {
	d := Detection{ClassID: r.ClassID}
	for _, name := range []string{r.ClassName, r.Class, r.Label} {
		if name != "" {
			d.ClassName = name
			break
		}
	}
	switch {
	case r.Confidence != nil:
		d.Confidence = *r.Confidence
	case r.Conf != nil:
		d.Confidence = *r.Conf
	}

	box, err := r.box()
	if err != nil {
		return Detection{}, err
	}
	d.Box = box
	return d, nil
}

func (r rawDetection) box() (depth.BoundingBox, error) {
	if len(r.BBox) > 0 && string(r.BBox) != "null" {
		var arr []float64
		if err := json.Unmarshal(r.BBox, &arr); err == nil {
			if len(arr) != 4 {
				return depth.BoundingBox{}, fmt.Errorf("bbox needs 4 values, got %d", len(arr))
			}
			return pixelBox(arr[0], arr[1], arr[2], arr[3])
		}
		var obj struct {
			X1, Y1, X2, Y2 *float64
		}
		if err := json.Unmarshal(r.BBox, &obj); err != nil {
			return depth.BoundingBox{}, fmt.Errorf("invalid bbox: %w", err)
		}
		if obj.X1 == nil || obj.Y1 == nil || obj.X2 == nil || obj.Y2 == nil {
			return depth.BoundingBox{}, errors.New("bbox object needs x1, y1, x2 and y2")
		}
		return pixelBox(*obj.X1, *obj.Y1, *obj.X2, *obj.Y2)
	}

	if r.X == nil || r.Y == nil || r.Width == nil || r.Height == nil {
		return depth.BoundingBox{}, errors.New("missing bbox (or x, y, width, height)")
	}
	return pixelBox(*r.X, *r.Y, *r.X+*r.Width, *r.Y+*r.Height)
}

// pixelBox truncates detector coordinates to integer pixels, the same way the
// detector output is cast to int before use.
func pixelBox(x1, y1, x2, y2 float64) (depth.BoundingBox, error) {
	for _, v := range []float64{x1, y1, x2, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return depth.BoundingBox{}, fmt.Errorf("non-finite coordinate %v", v)
		}
	}
	return depth.Box(int(x1), int(y1), int(x2), int(y2)), nil
}

// ParseYOLO reads a YOLO label file for an image of width x height pixels.
// classNames maps class ids to names and may be nil. Blank lines and lines
// starting with '#' are skipped.
func ParseYOLO(r io.Reader, width, height int, classNames []string) ([]Detection, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", width, height)
	}

	var dets []Detection
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		d, err := parseYOLOLine(text, width, height, classNames)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dets = append(dets, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return dets, nil
}

// yoloTolerance absorbs float noise in normalized coordinates written by
// detectors (e.g. 1.0000001).
const yoloTolerance = 1e-6

func parseYOLOLine(text string, width, height int, classNames []string) (Detection, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 && len(fields) != 6 {
		return Detection{}, fmt.Errorf("expected 5 or 6 fields, got %d", len(fields))
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil || classID < 0 {
		return Detection{}, fmt.Errorf("invalid class id %q", fields[0])
	}

	var v [5]float64
	for i, f := range fields[1:] {
		v[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return Detection{}, fmt.Errorf("invalid number %q", f)
		}
	}
	cx, cy, w, h := v[0], v[1], v[2], v[3]

	for _, c := range []float64{cx - w/2, cy - h/2, cx + w/2, cy + h/2} {
		if c < -yoloTolerance || c > 1+yoloTolerance || math.IsNaN(c) {
			return Detection{}, fmt.Errorf("normalized box (%g %g %g %g) leaves the image", cx, cy, w, h)
		}
	}

	fw, fh := float64(width), float64(height)
	x1 := clampInt(int(math.Floor((cx-w/2)*fw+yoloTolerance)), 0, width)
	y1 := clampInt(int(math.Floor((cy-h/2)*fh+yoloTolerance)), 0, height)
	x2 := clampInt(int(math.Ceil((cx+w/2)*fw-yoloTolerance)), 0, width)
	y2 := clampInt(int(math.Ceil((cy+h/2)*fh-yoloTolerance)), 0, height)

	d := Detection{
		Box:        depth.Box(x1, y1, x2, y2),
		ClassID:    classID,
		Confidence: 1,
	}
	if len(fields) == 6 {
		d.Confidence = v[4]
	}
	if classID < len(classNames) {
		d.ClassName = classNames[classID]
	}
	return d, nil
}

// clampInt keeps a converted coordinate on the image; normalized input has
// already been checked to lie within it.
func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// LoadFile reads detections from path: ".json" files as JSON, everything
// else as YOLO labels for an image of width x height.
func LoadFile(path string, width, height int, classNames []string) ([]Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYOLO(bytes.NewReader(data), width, height, classNames)
}
