// Package ffmpeg builds and runs the three ffmpeg invocations used per
// input video: vidstabdetect analysis, vidstabtransform rendering and the
// optional hstack comparison.
//
// Commands are executed directly (no shell), so user-supplied filter
// options are confined to the single -vf argument they are spliced into.
package ffmpeg
