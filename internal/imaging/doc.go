// Package imaging provides the image I/O and color helpers shared by the
// pipeline, the CLI and the MCP server.
//
// It covers decoding avatars from bytes or files, PNG output, pixel
// sampling, hex color parsing and dominant-color extraction, plus two
// caches: ImageCache for decoded local files and AvatarCache for the raw
// bytes of downloaded avatars.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// ImageCache, MemoryAvatarCache and RedisAvatarCache are safe for concurrent
// use. The remaining functions are stateless.
package imaging
