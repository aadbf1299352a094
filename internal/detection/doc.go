// Package detection reads the output of an external object detector.
//
// The depth tools never detect objects themselves. A detector (YOLO or any
// other) runs first and its boxes arrive here as one of:
//
//   - A JSON list of detections, bare or under a "detections" key. Each entry
//     gives its box either as "bbox": [x1, y1, x2, y2] in pixels, as
//     "bbox": {"x1":..,"y1":..,"x2":..,"y2":..}, or as "x", "y", "width",
//     "height". Optional fields: "class_id", "class_name" (or "class" or
//     "label"), "confidence" (or "conf").
//   - A YOLO label file: one "class cx cy w h [confidence]" line per object,
//     coordinates normalized to [0, 1]. The image size turns them into
//     pixel boxes.
//
// # Coordinate System
//
// Boxes are pixel boxes in the xyxy convention of depth.BoundingBox: (x1,y1)
// inclusive, (x2,y2) exclusive. Parsing never clamps a box to the image;
// validation against the depth image happens where the box is used.
package detection
