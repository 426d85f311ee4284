/*
Package workers sizes the background pool that runs frame extraction and
remote image fetches.

Go 1.19+ sets GOMAXPROCS from the container CPU quota, while runtime.NumCPU
still reports host CPUs. Worker counts are therefore derived from GOMAXPROCS:

	n := workers.ForMixed(16) // 1.5 per CPU, at most 16

The THUMBNAIL_WORKERS environment variable pins the count for all helpers.

The resolver pool is unbounded by default. [PoolLimit] turns the
BACKGROUND_WORKERS setting into a bound:

	limit, ok := workers.PoolLimit(os.Getenv("BACKGROUND_WORKERS"), 32)
*/
package workers
