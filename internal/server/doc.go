// Package server implements the MCP (Model Context Protocol) server that exposes
// the diffusion and pose kernels as tools.
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
// Diffusion:
//   - diffusion_step: One explicit step on raw row-major buffers
//   - diffusion_evolve_image: Evolve an image file through a step schedule
//   - conductivity_field: Contrast factor and conductivity map of an image
//
// Pose algebra:
//   - pose_transform: Transform a point, optionally with Jacobians
//   - pose_algebra: Inverse, scale, compose and se(3) round trip
//   - pose_residuals: Score 2D-3D or 2D-2D matches against a pose
//   - pose_refine: Gauss-Newton refinement of a world-to-camera pose
//
// Poses cross the wire in se(3) form [tx, ty, tz, rx, ry, rz] together with a
// kind naming the frame pair, so a tool can never apply a camera-to-world pose
// to a camera point.
//
// # Image Caching
//
// Decoded images and their luminance are cached by path. Once the cache holds
// VISION_MCP_CACHE_SIZE images, loading another evicts the oldest. Cached luminance buffers are cloned before diffusion runs on
// them in place.
//
// # Configuration
//
// Settings come from the environment (see ConfigFromEnv):
//   - VISION_MCP_LOG_LEVEL=debug logs every request to stderr
//   - VISION_MCP_MAX_DIMENSION bounds image sides fed to diffusion (default 1024)
//   - VISION_MCP_CACHE_SIZE bounds the decoded images kept in memory (default 16)
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
