// Command thumbgen resolves every entry of a manifest into a thumbnail file.
//
// Usage:
//
//	thumbgen -manifest list.json [-out dir] [-cache-dir dir] [-workers n]
//
// The manifest is a JSON array of entries, a YouTube playlistItems response
// or an imgflip get_memes response (see package manifest). Entries are
// resolved through the same pipeline as the server: image URLs are
// downloaded, videos have a frame extracted with FFmpeg, and failed
// extractions produce the placeholder image.
//
// Output files are named after the entry position: 001.jpg, 002.jpg, ...
// Entries with no source or an unknown kind are reported and skipped. The
// exit status is 1 when any entry failed, for example an image URL that
// could not be fetched.
//
// With -cache-dir, extracted frames are kept between runs so repeated
// invocations skip FFmpeg for videos already seen.
package main
