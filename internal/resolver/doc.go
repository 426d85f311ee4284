// Package resolver turns media references into displayable thumbnails.
//
// A [Resolver] takes a [media.Reference] and a callback and delivers exactly
// one image to the callback on a completion [Dispatcher]. The source is
// chosen by a fixed priority:
//
//  1. An inline image is delivered as is. No cache, no background work.
//  2. An image URL is fetched on the background [Pool] by the [Fetcher],
//     which owns its own cache. A failed fetch delivers nothing.
//  3. A video source is looked up in the thumbnail cache. A hit is delivered
//     straight away. A miss runs the [Extractor] in the background; a frame
//     is cached and then delivered, a failure delivers the
//     "Video-Streaming" placeholder without caching it.
//
// A reference with no source is rejected with [ErrInvalidReference].
//
// # Pipeline
//
// Every resolution has two stages. The produce stage runs on the pool (or
// inline for cheap branches) and yields an outcome. The deliver stage is the
// only place callbacks are scheduled: it records metrics and posts the
// callback to the dispatcher. Cache writes happen in the produce stage, so a
// callback always observes the entry its resolution wrote.
//
// # Dispatchers
//
// [Loop] is a single goroutine draining a FIFO of callbacks, the equivalent
// of a UI thread. [Inline] runs callbacks wherever delivery happens.
//
// # Concurrency
//
// The pool is unbounded unless a limit is given. Two concurrent resolutions
// of the same uncached video both extract and both write the cache, unless
// [Options.Coalesce] is set, in which case they share one extraction.
// In-flight work is never cancelled.
package resolver
