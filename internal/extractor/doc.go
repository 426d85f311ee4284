// Package extractor decodes one representative still frame from a video.
//
// [FFmpeg] shells out to ffmpeg. Local sources are checked for readability
// before ffmpeg runs; remote sources must be absolute URLs with a scheme
// ffmpeg can stream (http, https, rtmp, rtsp). HLS playlists are plain
// http(s) URLs.
//
// The frame is taken 3 seconds in, rotated according to the stream's display
// matrix, and capped at 750x1334. Failures are reported as
// [*AssetOpenError] when the source cannot be opened and [*FrameDecodeError]
// when it opens but no frame comes out.
package extractor
