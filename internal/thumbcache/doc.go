// Package thumbcache holds decoded thumbnails keyed by their source locator.
//
// A [Cache] is an unbounded in-memory map guarded by a read/write mutex.
// Entries never expire and are never evicted. A Cache is built explicitly
// with [New] and shared by pointer; there is no package-level instance.
//
// An optional persistent [Store] sits behind the memory tier. A memory miss
// falls through to the store and a store hit is promoted into memory. Two
// stores are provided:
//
//   - [DiskStore] writes one JPEG per key, named by the md5 of the key.
//   - [SQLiteStore] keeps encoded thumbnails in a single SQLite table.
//
// Store failures are logged and counted; they never surface from Get or Set.
package thumbcache
