// Package server exposes the avatar tools over MCP (Model Context Protocol).
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and
// supports initialize, tools/list, tools/call and ping.
//
// # Available Tools
//
//   - image_load: dimensions, format and alpha of an image file
//   - avatar_is_automatic: symmetry report and placeholder verdict
//   - avatar_hsv: HSV of one pixel
//   - avatar_compare_colors: whether two hex colors count as close
//   - avatar_compose: composite local images into a grid
//
// Loaded images are cached by path for the lifetime of the server.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the Go
// error string as data. Malformed parameters use -32602 and unparsable lines
// -32700.
package server
