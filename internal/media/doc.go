// Package media describes media items and holds the image utilities the
// thumbnail pipeline shares.
//
// A [Reference] is one displayable item: an inline image, a remote image
// URL, or a video (local path or remote URL) with a [VideoKind]. Resolution
// always prefers the inline image, then the image URL, then the video.
//
// Image helpers bound decoded frames to 750x1334 ([Fit], [FitEncoded]),
// decode with EXIF orientation applied, and encode JPEG. libvips is used for
// decode-time shrinking when [InitVips] has been called.
//
// [Assets] serves named placeholder images such as [VideoPlaceholder].
package media
