// Package comm provides the message-passing communicator the topology
// protocol runs on.
//
// A Comm offers blocking collectives (AllGather, AllReduce, ExclusiveScan,
// AllToAll, ComputeGraphEdges) and sparse neighbourhood exchanges built on a
// point-to-point Transport. Payloads are fixed-width little-endian int64
// arrays.
//
// # Transports
//
// In-process, one goroutine per rank:
//
//	err := comm.Run(ctx, 4, func(ctx context.Context, c *comm.Comm) error {
//	    total, err := c.AllReduce(ctx, int64(c.Rank()), comm.OpSum)
//	    ...
//	})
//
// Across processes, see package comm/tcp.
//
// # Ordering
//
// Collectives are matched by a per-communicator sequence number. Every rank
// must issue the same collectives in the same order; a rank that skips one
// will block forever (or until its context is cancelled).
package comm
