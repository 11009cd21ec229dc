/*
Package filesystem wraps os.Stat and os.Open with retries for NFS stale file
handle errors (ESTALE).

Carriers and published results are often mounted from network storage. A
stat or open that races a server-side change can fail with ESTALE even
though the file is fine; retrying with a short backoff recovers. Every other
error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Metrics are labelled by volume. Register the mounts once at startup:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "carriers": config.CarrierDir,
	    "results":  config.ResultsDir,
	    "temp":     config.TempDir,
	}))

Paths outside every registered volume are labelled "unknown".
*/
package filesystem
