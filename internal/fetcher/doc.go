// Package fetcher downloads and decodes remote still images.
//
// [HTTP] keeps its own [thumbcache.Cache] keyed by URL, so repeated fetches
// of the same poster never leave the process. Non-2xx responses fail with
// [ErrStatus]; transport and decode errors are returned as-is.
package fetcher
