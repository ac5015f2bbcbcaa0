// Package tcp implements a comm.Transport over TCP for jobs that run one rank
// per process.
//
// Every rank listens on its own address and dials every other rank. The first
// frame on a connection is a handshake naming the dialling rank; all later
// frames carry a (sequence, payload) pair that is delivered to the matching
// receive. Payloads can be compressed with LZ4 or zstd and outgoing traffic
// can be throttled.
//
//	t, err := tcp.Dial(ctx, tcp.Config{
//	    Rank:        rank,
//	    Size:        len(peers),
//	    ListenAddr:  peers[rank],
//	    Compression: tcp.CompressionLZ4,
//	}, peers)
//	if err != nil {
//	    return err
//	}
//	c := comm.New(t)
//	defer c.Close()
package tcp
