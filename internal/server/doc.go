// Package server implements the MCP (Model Context Protocol) server for depth
// metrology tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// File information:
//   - depth_load: Depth file metadata and range
//   - depth_visualize: Colormapped rendering
//
// Metrology:
//   - depth_dimensions: Width, height and distance of a box
//   - depth_roughness: Local variance roughness of a box
//   - depth_analyze: Dimensions and roughness for every detection
//   - depth_region_stats: Depth distribution of a box
//
// Distribution and texture views:
//   - depth_roughness_map: Local variance heat map
//   - depth_histogram: Depth histogram chart
//
// Point measurements:
//   - depth_sample: Depth and 3D point at a pixel
//   - depth_measure_distance: 3D distance between two pixels
//
// Inspection renderings:
//   - depth_crop: Zoom into a box
//   - depth_edges: Depth discontinuities
//   - depth_overlay: Boxes with metric labels
//
// Every metric tool takes path and an optional denoise flag. Camera
// intrinsics, window size and depth scale default to the loaded
// configuration and can be overridden per call.
//
// # Depth Caching
//
// Decoded depth files are cached by path together with their denoised
// version, so a sequence of calls on the same file decodes and filters it
// once.
//
// # Error Handling
//
//   - -32602: malformed or missing arguments, unknown tool
//   - -32000: the tool failed (unreadable file, box outside the image)
//
// The data field carries the Go error string.
package server
