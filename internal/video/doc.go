// Package video wraps the ffmpeg/ffprobe external tools for probing,
// poster-frame extraction, and streaming derivative transcoding.
//
// Invocations are synchronous and carry no timeout; a hanging tool hangs
// the run. Tool availability is checked once up front via CheckTools.
package video
