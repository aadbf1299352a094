package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = values
	return p
}

// schema builds an object schema from property groups. Later groups win on
// duplicate names.
func schema(required []string, groups ...map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	for _, g := range groups {
		for k, v := range g {
			props[k] = v
		}
	}
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func sourceProps() map[string]interface{} {
	return map[string]interface{}{
		"path":    prop("string", "Absolute path to the depth image (16-bit PNG or TIFF, raw sensor units)"),
		"denoise": prop("boolean", "Apply the 3x3 median filter before measuring (default from configuration, normally true)"),
	}
}

func boxProps() map[string]interface{} {
	return map[string]interface{}{
		"x1": prop("integer", "Left edge X coordinate (0-based, inclusive)"),
		"y1": prop("integer", "Top edge Y coordinate (0-based, inclusive)"),
		"x2": prop("integer", "Right edge X coordinate (exclusive)"),
		"y2": prop("integer", "Bottom edge Y coordinate (exclusive)"),
	}
}

func cameraProps() map[string]interface{} {
	return map[string]interface{}{
		"fx":          prop("number", "Focal length in pixels along X (overrides configuration)"),
		"fy":          prop("number", "Focal length in pixels along Y (overrides configuration)"),
		"u0":          prop("number", "Principal point X in pixels (overrides configuration)"),
		"v0":          prop("number", "Principal point Y in pixels (overrides configuration)"),
		"depth_scale": prop("number", "Meters per raw depth unit (overrides configuration, 0.001 for millimeters)"),
	}
}

func depthScaleProps() map[string]interface{} {
	return map[string]interface{}{
		"depth_scale": prop("number", "Meters per raw depth unit (overrides configuration)"),
	}
}

func detectionProps() map[string]interface{} {
	return map[string]interface{}{
		"detections": map[string]interface{}{
			"type":        "array",
			"description": "Detector boxes: objects with bbox [x1,y1,x2,y2] (or x, y, width, height), class_name and confidence",
			"items":       map[string]interface{}{"type": "object"},
		},
		"detections_path": prop("string", "Detection file: .json, or YOLO label text (class cx cy w h [conf], normalized)"),
		"class_names": map[string]interface{}{
			"type":        "array",
			"description": "Class names indexed by YOLO class id",
			"items":       map[string]interface{}{"type": "string"},
		},
	}
}

func renderProps() map[string]interface{} {
	return map[string]interface{}{
		"format": enumProp("Output format (default: png)", "png", "jpeg"),
		"save":   prop("boolean", "Also write the rendering as <uuid>_<kind>.png into the output directory"),
	}
}

func colormapProps(def string) map[string]interface{} {
	return map[string]interface{}{
		"colormap": enumProp("Colormap (default: "+def+")", "gray", "hue", "heat"),
	}
}

func windowProps() map[string]interface{} {
	return map[string]interface{}{
		"window_size": prop("integer", "Local variance window in pixels (default from configuration, normally 5)"),
	}
}

var (
	pathRequired = []string{"path"}
	boxRequired  = []string{"path", "x1", "y1", "x2", "y2"}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// File information
		{
			Name:        "depth_load",
			Description: "Load a depth image and report its size, format, bit depth, how many pixels carry a reading and the depth range in raw units and meters.",
			InputSchema: schema(pathRequired, map[string]interface{}{
				"path": prop("string", "Absolute path to the depth image"),
			}, depthScaleProps()),
		},
		{
			Name:        "depth_visualize",
			Description: "Render the depth image for viewing. gray is the normalized 8-bit view; hue and heat stretch the valid depth range. Pixels without a reading are black.",
			InputSchema: schema(pathRequired, sourceProps(), colormapProps("gray"), renderProps()),
		},

		// Metrology
		{
			Name:        "depth_dimensions",
			Description: "Physical width, height and mean distance of a bounding box in meters, using the pinhole model with the mean valid depth of the box.",
			InputSchema: schema(boxRequired, sourceProps(), boxProps(), cameraProps()),
		},
		{
			Name:        "depth_roughness",
			Description: "Surface roughness of a bounding box: the mean local depth variance over a sliding window, in raw units squared and in square meters.",
			InputSchema: schema(boxRequired, sourceProps(), boxProps(), windowProps(), depthScaleProps()),
		},
		{
			Name:        "depth_analyze",
			Description: "Measure every detector box in one call: dimensions and roughness per detection, in input order. Boxes without depth are flagged insufficient_data.",
			InputSchema: schema(pathRequired, sourceProps(), cameraProps(), detectionProps(), windowProps(), map[string]interface{}{
				"save_overlay": prop("boolean", "Also save a rendering with the boxes and their sizes drawn in"),
			}),
		},
		{
			Name:        "depth_region_stats",
			Description: "Distribution of the valid depths in a bounding box: valid fraction, min, max, mean, median, 5th/95th percentile and standard deviation in meters.",
			InputSchema: schema(boxRequired, sourceProps(), boxProps(), depthScaleProps()),
		},

		// Distribution and texture views
		{
			Name:        "depth_roughness_map",
			Description: "Heat map of the local depth variance of every pixel in a bounding box, with the roughness score. Shows where a surface is rough.",
			InputSchema: schema(boxRequired, sourceProps(), boxProps(), windowProps(), depthScaleProps(), colormapProps("heat"), renderProps()),
		},
		{
			Name:        "depth_histogram",
			Description: "Histogram chart of valid depths in meters, for the whole image or an optional bounding box.",
			InputSchema: schema(pathRequired, sourceProps(), boxProps(), depthScaleProps(), map[string]interface{}{
				"bins": prop("integer", "Number of bins (default: 50)"),
			}),
		},

		// Point measurements
		{
			Name:        "depth_sample",
			Description: "Depth at one pixel, raw and in meters, with its 3D camera-frame position.",
			InputSchema: schema([]string{"path", "x", "y"}, sourceProps(), cameraProps(), map[string]interface{}{
				"x": prop("integer", "X coordinate"),
				"y": prop("integer", "Y coordinate"),
			}),
		},
		{
			Name:        "depth_measure_distance",
			Description: "Distance between two pixels: in pixels, and in meters along the 3D line between their back-projected points when both carry depth.",
			InputSchema: schema(boxRequired, sourceProps(), cameraProps(), map[string]interface{}{
				"x1": prop("integer", "Start point X coordinate"),
				"y1": prop("integer", "Start point Y coordinate"),
				"x2": prop("integer", "End point X coordinate"),
				"y2": prop("integer", "End point Y coordinate"),
			}),
		},

		// Inspection renderings
		{
			Name:        "depth_crop",
			Description: "Crop a bounding box out of the depth rendering, optionally enlarged, to inspect a region in detail.",
			InputSchema: schema(boxRequired, sourceProps(), boxProps(), colormapProps("gray"), map[string]interface{}{
				"scale":  prop("number", "Scale factor (default: 1.0, max 16)"),
				"format": enumProp("Output format (default: png)", "png", "jpeg"),
			}),
		},
		{
			Name:        "depth_edges",
			Description: "Depth discontinuity map: white where the depth jumps by at least threshold_m between neighbors. Outlines objects against the background.",
			InputSchema: schema(pathRequired, sourceProps(), depthScaleProps(), renderProps(), map[string]interface{}{
				"threshold_m": prop("number", "Minimum depth jump in meters (default: 0.05)"),
			}),
		},
		{
			Name:        "depth_overlay",
			Description: "Draw detector boxes labeled with their metric width x height on the depth rendering or on a matching color photo.",
			InputSchema: schema(pathRequired, sourceProps(), cameraProps(), detectionProps(), renderProps(), map[string]interface{}{
				"image_path": prop("string", "Optional color image of the same size to draw on instead of the depth rendering"),
				"color":      prop("string", "Box color as #RRGGBB (default: #00FF00)"),
			}),
		},
	}
}
