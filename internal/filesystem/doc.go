/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Video sources are classified as local or remote by checking whether a file
exists at the locator. Media libraries are often NFS-mounted, so the check
retries ESTALE (errno 116) with exponential backoff before deciding a path is
absent. All other errors fail immediately.

	if filesystem.Exists("/media/clips/intro.mp4") {
	    // open as a local asset
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms.

Metrics are recorded through an [Observer] installed with [SetObserver]; the
metrics package supplies the Prometheus implementation.
*/
package filesystem
