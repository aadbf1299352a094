package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
	"github.com/ironsheep/depth-metrology-mcp/internal/detection"
	"github.com/ironsheep/depth-metrology-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "depth_load", "depth_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// invalidParamsError marks a request the client got wrong, as opposed to a
// tool that failed on valid input.
type invalidParamsError struct {
	err error
}

func (e *invalidParamsError) Error() string { return e.err.Error() }
func (e *invalidParamsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &invalidParamsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed or missing arguments return -32602; failures while running the
// tool (unreadable files, boxes outside the image) return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err == nil {
		var text string
		text, err = marshalResult(result)
		if err == nil {
			s.log.Debugw("tool call", "tool", params.Name, "duration", time.Since(start))
			return &MCPResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result: map[string]interface{}{
					"content": []map[string]interface{}{
						{
							"type": "text",
							"text": text,
						},
					},
				},
			}
		}
	}

	s.log.Warnw("tool call failed", "tool", params.Name, "error", err, "duration", time.Since(start))
	var pe *invalidParamsError
	if errors.As(err, &pe) {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads the depth file from cache, raw or denoised
//  4. Calls the appropriate depth/imaging/detection function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// File information
	case "depth_load":
		return s.handleDepthLoad(args)
	case "depth_visualize":
		return s.handleDepthVisualize(args)

	// Metrology
	case "depth_dimensions":
		return s.handleDepthDimensions(args)
	case "depth_roughness":
		return s.handleDepthRoughness(args)
	case "depth_analyze":
		return s.handleDepthAnalyze(ctx, args)
	case "depth_region_stats":
		return s.handleDepthRegionStats(args)

	// Distribution and texture views
	case "depth_roughness_map":
		return s.handleDepthRoughnessMap(args)
	case "depth_histogram":
		return s.handleDepthHistogram(args)

	// Point measurements
	case "depth_sample":
		return s.handleDepthSample(args)
	case "depth_measure_distance":
		return s.handleDepthMeasureDistance(args)

	// Inspection renderings
	case "depth_crop":
		return s.handleDepthCrop(args)
	case "depth_edges":
		return s.handleDepthEdges(args)
	case "depth_overlay":
		return s.handleDepthOverlay(ctx, args)

	default:
		return nil, invalidParams("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// marshalResult converts a tool result to pretty-printed JSON. Non-finite
// numbers cannot be encoded and surface as a tool failure.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// decodeArgs unmarshals tool arguments. An absent arguments object is
// treated as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &invalidParamsError{err: err}
	}
	return nil
}

// === Shared argument groups ===

// sourceArgs selects the depth file and whether to read it denoised.
type sourceArgs struct {
	Path    string `json:"path"`
	Denoise *bool  `json:"denoise"`
}

// cameraArgs overrides the configured intrinsics for one call.
type cameraArgs struct {
	Fx         *float64 `json:"fx"`
	Fy         *float64 `json:"fy"`
	U0         *float64 `json:"u0"`
	V0         *float64 `json:"v0"`
	DepthScale *float64 `json:"depth_scale"`
}

// boxArgs is a bounding box given as four separate coordinates.
type boxArgs struct {
	X1 *int `json:"x1"`
	Y1 *int `json:"y1"`
	X2 *int `json:"x2"`
	Y2 *int `json:"y2"`
}

// detectionArgs carries detections inline or by file.
type detectionArgs struct {
	Detections     json.RawMessage `json:"detections"`
	DetectionsPath string          `json:"detections_path"`
	ClassNames     []string        `json:"class_names"`
}

func (b boxArgs) given() bool {
	return b.X1 != nil || b.Y1 != nil || b.X2 != nil || b.Y2 != nil
}

func (b boxArgs) box() (depth.BoundingBox, error) {
	if b.X1 == nil || b.Y1 == nil || b.X2 == nil || b.Y2 == nil {
		return depth.BoundingBox{}, invalidParams("x1, y1, x2 and y2 are required")
	}
	return depth.Box(*b.X1, *b.Y1, *b.X2, *b.Y2), nil
}

func (c cameraArgs) apply(base depth.CameraIntrinsics) depth.CameraIntrinsics {
	if c.Fx != nil {
		base.Fx = *c.Fx
	}
	if c.Fy != nil {
		base.Fy = *c.Fy
	}
	if c.U0 != nil {
		base.U0 = *c.U0
	}
	if c.V0 != nil {
		base.V0 = *c.V0
	}
	if c.DepthScale != nil {
		base.DepthScale = *c.DepthScale
	}
	return base
}

func (s *Server) intrinsics(c cameraArgs) depth.CameraIntrinsics {
	return c.apply(s.cfg.Camera)
}

// loadDepth returns the frame for a.Path and the depth image the metric
// tools should read.
func (s *Server) loadDepth(a sourceArgs) (*imaging.DepthFrame, *depth.Image, error) {
	if a.Path == "" {
		return nil, nil, invalidParams("path is required")
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}
	denoise := s.cfg.Preprocess.Denoise
	if a.Denoise != nil {
		denoise = *a.Denoise
	}
	return frame, frame.Select(denoise), nil
}

func (s *Server) windowSize(k int) (int, error) {
	if k < 0 {
		return 0, invalidParams("window_size must be positive, got %d", k)
	}
	if k == 0 {
		return s.cfg.Roughness.WindowSize, nil
	}
	return k, nil
}

// detections reads the detector output named by a, sized for img.
func (s *Server) detections(a detectionArgs, img *depth.Image) ([]detection.Detection, error) {
	inline := len(a.Detections) > 0 && string(a.Detections) != "null"
	switch {
	case inline && a.DetectionsPath != "":
		return nil, invalidParams("detections and detections_path are mutually exclusive")
	case inline:
		dets, err := detection.ParseJSON(a.Detections)
		if err != nil {
			return nil, &invalidParamsError{err: err}
		}
		return dets, nil
	case a.DetectionsPath != "":
		return detection.LoadFile(a.DetectionsPath, img.Width, img.Height, a.ClassNames)
	}
	return nil, invalidParams("detections or detections_path is required")
}

// save writes img to the output directory when requested.
func (s *Server) save(enabled bool, suffix string, img image.Image, enc *imaging.EncodedImage) error {
	if !enabled {
		return nil
	}
	path, err := imaging.SaveRendering(s.cfg.Output.Dir, suffix, img)
	if err != nil {
		return err
	}
	enc.SavedPath = path
	s.log.Infow("saved rendering", "path", path)
	return nil
}

// === File Information Handlers ===

type depthLoadArgs struct {
	Path       string   `json:"path"`
	DepthScale *float64 `json:"depth_scale"`
}

func (s *Server) handleDepthLoad(args json.RawMessage) (interface{}, error) {
	var a depthLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}
	scale := s.cfg.Camera.DepthScale
	if a.DepthScale != nil {
		scale = *a.DepthScale
	}
	return imaging.LoadDepthInfo(s.cache, a.Path, scale)
}

type depthVisualizeArgs struct {
	sourceArgs
	Colormap string `json:"colormap"`
	Format   string `json:"format"`
	Save     bool   `json:"save"`
}

func (s *Server) handleDepthVisualize(args json.RawMessage) (interface{}, error) {
	var a depthVisualizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cm, err := imaging.NewColormap(a.Colormap)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	rendered := imaging.Render(img, cm)
	enc, err := imaging.Encode(rendered, a.Format)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	if err := s.save(a.Save, "depth", rendered, enc); err != nil {
		return nil, err
	}
	return enc, nil
}

// === Metrology Handlers ===

type depthBoxArgs struct {
	sourceArgs
	cameraArgs
	boxArgs
}

// DimensionsResult is the depth_dimensions tool result.
type DimensionsResult struct {
	Box depth.BoundingBox `json:"bbox"`
	depth.DimensionResult
	InsufficientData bool `json:"insufficient_data"`
}

func (s *Server) handleDepthDimensions(args json.RawMessage) (interface{}, error) {
	var a depthBoxArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	box, err := a.box()
	if err != nil {
		return nil, err
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	dims, err := depth.CalculateDimensions(img, box, s.intrinsics(a.cameraArgs))
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Box: box, DimensionResult: dims, InsufficientData: dims.Empty()}, nil
}

type depthRoughnessArgs struct {
	sourceArgs
	boxArgs
	WindowSize int      `json:"window_size"`
	DepthScale *float64 `json:"depth_scale"`
}

// RoughnessToolResult is the depth_roughness tool result.
type RoughnessToolResult struct {
	Box depth.BoundingBox `json:"bbox"`
	depth.RoughnessResult
	RoughnessM2      float64 `json:"roughness_m2"`
	InsufficientData bool    `json:"insufficient_data"`
}

func (s *Server) roughness(a depthRoughnessArgs) (*depth.Image, depth.BoundingBox, int, *RoughnessToolResult, error) {
	box, err := a.box()
	if err != nil {
		return nil, box, 0, nil, err
	}
	k, err := s.windowSize(a.WindowSize)
	if err != nil {
		return nil, box, 0, nil, err
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, box, 0, nil, err
	}

	r, err := depth.EstimateRoughness(img, box, k)
	if err != nil {
		return nil, box, 0, nil, err
	}
	scale := s.cfg.Camera.DepthScale
	if a.DepthScale != nil {
		scale = *a.DepthScale
	}
	return img, box, k, &RoughnessToolResult{
		Box:              box,
		RoughnessResult:  r,
		RoughnessM2:      r.Scaled(scale),
		InsufficientData: r.ValidPixels == 0,
	}, nil
}

func (s *Server) handleDepthRoughness(args json.RawMessage) (interface{}, error) {
	var a depthRoughnessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, _, _, res, err := s.roughness(a)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type depthAnalyzeArgs struct {
	sourceArgs
	cameraArgs
	detectionArgs
	WindowSize  int  `json:"window_size"`
	SaveOverlay bool `json:"save_overlay"`
}

// AnalyzeResult is the depth_analyze tool result.
type AnalyzeResult struct {
	Path        string           `json:"path"`
	Count       int              `json:"count"`
	Results     []depth.Analysis `json:"results"`
	OverlayPath string           `json:"overlay_path,omitempty"`
}

// analyze runs the full per-detection measurement over img.
func (s *Server) analyze(ctx context.Context, img *depth.Image, a detectionArgs, k int, in depth.CameraIntrinsics) ([]depth.Analysis, error) {
	dets, err := s.detections(a, img)
	if err != nil {
		return nil, err
	}
	return depth.Analyze(ctx, img, detection.Targets(dets), depth.Options{
		Intrinsics: in,
		WindowSize: k,
		Workers:    s.cfg.Analysis.Workers,
	})
}

func (s *Server) handleDepthAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a depthAnalyzeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	k, err := s.windowSize(a.WindowSize)
	if err != nil {
		return nil, err
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	results, err := s.analyze(ctx, img, a.detectionArgs, k, s.intrinsics(a.cameraArgs))
	if err != nil {
		return nil, err
	}
	s.log.Infow("analyzed detections", "path", a.Path, "count", len(results))

	res := &AnalyzeResult{Path: a.Path, Count: len(results), Results: results}
	if a.SaveOverlay {
		cm, _ := imaging.NewColormap(imaging.ColormapGray)
		drawn, err := imaging.DrawAnnotations(imaging.Render(img, cm), annotations(results), "")
		if err != nil {
			return nil, err
		}
		path, err := imaging.SaveRendering(s.cfg.Output.Dir, "analysis", drawn)
		if err != nil {
			return nil, err
		}
		res.OverlayPath = path
	}
	return res, nil
}

// annotations labels each analyzed box with its metric width and height.
func annotations(results []depth.Analysis) []imaging.Annotation {
	anns := make([]imaging.Annotation, len(results))
	for i, r := range results {
		label := r.Label
		if label == "" {
			label = fmt.Sprintf("%d", r.Index)
		}
		if r.InsufficientData {
			label += " no data"
		} else {
			label = fmt.Sprintf("%s %.3fx%.3fm", label, r.Dimensions.Width, r.Dimensions.Height)
		}
		anns[i] = imaging.Annotation{Box: r.Box, Label: label}
	}
	return anns
}

type depthRegionStatsArgs struct {
	sourceArgs
	boxArgs
	DepthScale *float64 `json:"depth_scale"`
}

// RegionStatsResult is the depth_region_stats tool result.
type RegionStatsResult struct {
	Box depth.BoundingBox `json:"bbox"`
	depth.RegionStats
}

func (s *Server) handleDepthRegionStats(args json.RawMessage) (interface{}, error) {
	var a depthRegionStatsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	box, err := a.box()
	if err != nil {
		return nil, err
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	scale := s.cfg.Camera.DepthScale
	if a.DepthScale != nil {
		scale = *a.DepthScale
	}

	st, err := depth.RegionStatistics(img, box, scale)
	if err != nil {
		return nil, err
	}
	return &RegionStatsResult{Box: box, RegionStats: st}, nil
}

// === Distribution and Texture Handlers ===

type depthRoughnessMapArgs struct {
	depthRoughnessArgs
	Colormap string `json:"colormap"`
	Format   string `json:"format"`
	Save     bool   `json:"save"`
}

// RoughnessMapResult is the depth_roughness_map tool result: the local
// variance of every ROI pixel rendered through a colormap, plus the score.
type RoughnessMapResult struct {
	imaging.EncodedImage
	Roughness *RoughnessToolResult `json:"roughness"`
}

func (s *Server) handleDepthRoughnessMap(args json.RawMessage) (interface{}, error) {
	var a depthRoughnessMapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Colormap == "" {
		a.Colormap = imaging.ColormapHeat
	}
	cm, err := imaging.NewColormap(a.Colormap)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}

	img, box, k, score, err := s.roughness(a.depthRoughnessArgs)
	if err != nil {
		return nil, err
	}
	field, err := depth.LocalVarianceField(img, box, k)
	if err != nil {
		return nil, err
	}

	rendered := imaging.RenderField(field, cm)
	enc, err := imaging.Encode(rendered, a.Format)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	if err := s.save(a.Save, "roughness", rendered, enc); err != nil {
		return nil, err
	}
	return &RoughnessMapResult{EncodedImage: *enc, Roughness: score}, nil
}

type depthHistogramArgs struct {
	sourceArgs
	boxArgs
	Bins       int      `json:"bins"`
	DepthScale *float64 `json:"depth_scale"`
}

func (s *Server) handleDepthHistogram(args json.RawMessage) (interface{}, error) {
	var a depthHistogramArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Bins < 0 {
		return nil, invalidParams("bins must be positive, got %d", a.Bins)
	}
	var box *depth.BoundingBox
	if a.boxArgs.given() {
		b, err := a.box()
		if err != nil {
			return nil, err
		}
		box = &b
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	scale := s.cfg.Camera.DepthScale
	if a.DepthScale != nil {
		scale = *a.DepthScale
	}
	return imaging.DepthHistogram(img, box, scale, a.Bins)
}

// === Point Measurement Handlers ===

type depthSampleArgs struct {
	sourceArgs
	cameraArgs
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (s *Server) handleDepthSample(args json.RawMessage) (interface{}, error) {
	var a depthSampleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.X == nil || a.Y == nil {
		return nil, invalidParams("x and y are required")
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	return imaging.SampleDepth(img, *a.X, *a.Y, s.intrinsics(a.cameraArgs))
}

func (s *Server) handleDepthMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a depthBoxArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.X1 == nil || a.Y1 == nil || a.X2 == nil || a.Y2 == nil {
		return nil, invalidParams("x1, y1, x2 and y2 are required")
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	p1 := imaging.Point{X: *a.X1, Y: *a.Y1}
	p2 := imaging.Point{X: *a.X2, Y: *a.Y2}
	return imaging.MeasureDistance(img, p1, p2, s.intrinsics(a.cameraArgs))
}

// === Inspection Rendering Handlers ===

type depthCropArgs struct {
	sourceArgs
	boxArgs
	Scale    float64 `json:"scale"`
	Colormap string  `json:"colormap"`
	Format   string  `json:"format"`
}

// CropResult is the depth_crop tool result.
type CropResult struct {
	imaging.EncodedImage
	Box   depth.BoundingBox `json:"bbox"`
	Scale float64           `json:"scale"`
}

func (s *Server) handleDepthCrop(args json.RawMessage) (interface{}, error) {
	var a depthCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	box, err := a.box()
	if err != nil {
		return nil, err
	}
	cm, err := imaging.NewColormap(a.Colormap)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1
	}

	cropped, err := imaging.Crop(imaging.Render(img, cm), box, a.Scale)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(cropped, a.Format)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	return &CropResult{EncodedImage: *enc, Box: box, Scale: a.Scale}, nil
}

type depthEdgesArgs struct {
	sourceArgs
	Threshold  float64  `json:"threshold_m"`
	DepthScale *float64 `json:"depth_scale"`
	Format     string   `json:"format"`
	Save       bool     `json:"save"`
}

// EdgesResult is the depth_edges tool result.
type EdgesResult struct {
	imaging.EncodedImage
	EdgePixels int     `json:"edge_pixels"`
	Threshold  float64 `json:"threshold_m"`
}

func (s *Server) handleDepthEdges(args json.RawMessage) (interface{}, error) {
	var a depthEdgesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == 0 {
		a.Threshold = imaging.DefaultEdgeThreshold
	}
	if a.Threshold < 0 {
		return nil, invalidParams("threshold_m must be positive, got %g", a.Threshold)
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	scale := s.cfg.Camera.DepthScale
	if a.DepthScale != nil {
		scale = *a.DepthScale
	}

	em, err := imaging.DepthEdges(img, scale, a.Threshold)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(em.Image, a.Format)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	if err := s.save(a.Save, "edges", em.Image, enc); err != nil {
		return nil, err
	}
	return &EdgesResult{EncodedImage: *enc, EdgePixels: em.EdgePixels, Threshold: em.Threshold}, nil
}

type depthOverlayArgs struct {
	sourceArgs
	cameraArgs
	detectionArgs
	ImagePath string `json:"image_path"`
	Color     string `json:"color"`
	Format    string `json:"format"`
	Save      bool   `json:"save"`
}

// OverlayResult is the depth_overlay tool result.
type OverlayResult struct {
	imaging.EncodedImage
	Annotations int `json:"annotations"`
}

func (s *Server) handleDepthOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a depthOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, img, err := s.loadDepth(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	var base image.Image
	if a.ImagePath != "" {
		photo, err := s.cache.Load(a.ImagePath)
		if err != nil {
			return nil, err
		}
		if b := photo.Source.Bounds(); b.Dx() != img.Width || b.Dy() != img.Height {
			return nil, invalidParams("image %dx%d does not match depth %dx%d", b.Dx(), b.Dy(), img.Width, img.Height)
		}
		base = photo.Source
	} else {
		cm, _ := imaging.NewColormap(imaging.ColormapGray)
		base = imaging.Render(img, cm)
	}

	results, err := s.analyze(ctx, img, a.detectionArgs, s.cfg.Roughness.WindowSize, s.intrinsics(a.cameraArgs))
	if err != nil {
		return nil, err
	}
	drawn, err := imaging.DrawAnnotations(base, annotations(results), a.Color)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}

	enc, err := imaging.Encode(drawn, a.Format)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	if err := s.save(a.Save, "overlay", drawn, enc); err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: *enc, Annotations: len(results)}, nil
}
