// Package resource limits the resources a transport may use.
//
//   - Dials: a weighted semaphore bounds concurrent peer connection attempts.
//   - Bandwidth: a token bucket throttles outgoing bytes so a topology build
//     does not saturate links shared with a running job.
//
//	rc := resource.NewController(resource.Config{
//	    BandwidthBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//	w := resource.NewRateLimitedWriter(ctx, conn, rc)
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
