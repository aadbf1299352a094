// Package imaging handles depth files and everything drawn from them.
//
// It decodes depth maps (16-bit grayscale PNG or TIFF, 8-bit grayscale) into
// depth.Image, caches them, and renders display images: colormapped depth,
// variance heat maps, crops, annotated overlays, edge maps and histograms.
// It also samples single pixels and measures point-to-point distances in 3D.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive and (x2,y2) is exclusive
//
// Regions are depth.BoundingBox values and are validated the same way as in
// the metric code: a box outside the image is an error, never clamped.
//
// # Thread Safety
//
// DepthCache is safe for concurrent use, and so is the lazy Denoised image of
// a cached frame. Frames and their images are shared and must be treated as
// read-only. The rendering functions are stateless.
//
// # Display Only
//
// Renderings are 8-bit and lossy. Nothing rendered here is ever fed back into
// a dimension or roughness computation.
package imaging
