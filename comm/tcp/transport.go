package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/internal/mailbox"
	"github.com/hupe1980/meshtopo/internal/resource"
	"github.com/hupe1980/meshtopo/internal/wire"
)

var (
	// ErrNotConnected is returned when sending before Connect completed.
	ErrNotConnected = errors.New("tcp: transport not connected")

	// ErrBadHandshake is returned when a peer opens with an invalid handshake.
	ErrBadHandshake = errors.New("tcp: bad handshake")

	// ErrInvalidConfig is returned for an unusable Config.
	ErrInvalidConfig = errors.New("tcp: invalid config")
)

// Compression selects payload compression.
type Compression = wire.Compression

// Limits bounds frame sizes.
type Limits = wire.Limits

const (
	CompressionNone = wire.CompressionNone
	CompressionLZ4  = wire.CompressionLZ4
	CompressionZSTD = wire.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) { return wire.ParseCompression(s) }

// Config configures one rank's TCP endpoint.
type Config struct {
	// Rank is this process' rank.
	Rank int
	// Size is the number of ranks in the job.
	Size int
	// ListenAddr is the address to accept peer connections on ("host:port").
	ListenAddr string
	// Compression is applied to outgoing payloads.
	Compression Compression
	// BandwidthBytesPerSec throttles outgoing traffic. 0 means unlimited.
	BandwidthBytesPerSec int64
	// DialTimeout bounds the time spent waiting for peers to come up.
	// If 0, defaults to 30s.
	DialTimeout time.Duration
	// Backoff controls dial retries.
	Backoff BackoffConfig
	// Limits bounds frame sizes.
	Limits Limits
	// Logger receives connection lifecycle events. Nil discards them.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidConfig, c.Size)
	}
	if c.Rank < 0 || c.Rank >= c.Size {
		return fmt.Errorf("%w: rank %d of %d", ErrInvalidConfig, c.Rank, c.Size)
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 30 * time.Second
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = DefaultBackoff()
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = wire.DefaultLimits()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

type peer struct {
	mu   sync.Mutex
	conn net.Conn
	w    *bufio.Writer
}

// Transport is a comm.Transport over TCP: one outgoing connection per peer for
// sending, and an accept loop that feeds incoming frames into a mailbox.
type Transport struct {
	cfg Config
	ln  net.Listener
	box *mailbox.Mailbox
	rc  *resource.Controller

	peers []*peer

	mu       sync.Mutex
	incoming []net.Conn
	closed   bool

	wg sync.WaitGroup
}

var _ comm.Transport = (*Transport)(nil)

// Listen opens the listening socket and starts accepting peers. Call Connect
// once every rank is listening.
func Listen(ctx context.Context, cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lc := listenConfig()
	ln, err := lc.Listen(ctx, "tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen %s: %w", cfg.ListenAddr, err)
	}
	t := &Transport{
		cfg:   cfg,
		ln:    ln,
		box:   mailbox.New(),
		rc:    resource.NewController(resource.Config{BandwidthBytesPerSec: cfg.BandwidthBytesPerSec}),
		peers: make([]*peer, cfg.Size),
	}
	t.wg.Add(1)
	go t.acceptLoop()
	cfg.Logger.Debug("listening", "rank", cfg.Rank, "addr", ln.Addr().String())
	return t, nil
}

// Dial is Listen followed by Connect.
func Dial(ctx context.Context, cfg Config, peers []string) (*Transport, error) {
	t, err := Listen(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := t.Connect(ctx, peers); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Addr returns the bound listen address.
func (t *Transport) Addr() string { return t.ln.Addr().String() }

// Rank implements comm.Transport.
func (t *Transport) Rank() int { return t.cfg.Rank }

// Size implements comm.Transport.
func (t *Transport) Size() int { return t.cfg.Size }

// Connect dials every other rank. peers[i] is rank i's listen address.
func (t *Transport) Connect(ctx context.Context, peers []string) error {
	if len(peers) != t.cfg.Size {
		return fmt.Errorf("%w: %d peer addresses for %d ranks", ErrInvalidConfig, len(peers), t.cfg.Size)
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for r, addr := range peers {
		if r == t.cfg.Rank {
			continue
		}
		g.Go(func() error {
			if err := t.rc.AcquireDial(ctx); err != nil {
				return err
			}
			defer t.rc.ReleaseDial()
			conn, err := t.dial(ctx, addr)
			if err != nil {
				return fmt.Errorf("tcp: dial rank %d at %s: %w", r, addr, err)
			}
			p := &peer{conn: conn, w: bufio.NewWriter(resource.NewRateLimitedWriter(context.Background(), conn, t.rc))}
			if _, err := wire.WriteFrame(p.w, uint32(t.cfg.Rank), 0, wire.FlagHandshake, nil, wire.CompressionNone, t.cfg.Limits); err != nil {
				_ = conn.Close()
				return fmt.Errorf("tcp: handshake with rank %d: %w", r, err)
			}
			if err := p.w.Flush(); err != nil {
				_ = conn.Close()
				return fmt.Errorf("tcp: handshake with rank %d: %w", r, err)
			}
			t.mu.Lock()
			t.peers[r] = p
			t.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	t.cfg.Logger.Debug("connected", "rank", t.cfg.Rank, "peers", t.cfg.Size-1)
	return nil
}

func (t *Transport) dial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), err)
		case <-time.After(nextBackoffDelay(t.cfg.Backoff, attempt)):
		}
	}
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			return
		}
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.incoming = append(t.incoming, conn)
		t.mu.Unlock()

		t.wg.Add(1)
		go t.readLoop(conn)
	}
}

func (t *Transport) readLoop(conn net.Conn) {
	defer t.wg.Done()
	r := bufio.NewReader(conn)

	hello, err := wire.ReadFrame(r, t.cfg.Limits)
	if err != nil || hello.Header.Flags&wire.FlagHandshake == 0 {
		t.cfg.Logger.Warn("rejecting peer", "rank", t.cfg.Rank, "remote", conn.RemoteAddr().String(), "error", errors.Join(ErrBadHandshake, err))
		_ = conn.Close()
		return
	}
	src := int(hello.Header.Source)
	if src < 0 || src >= t.cfg.Size || src == t.cfg.Rank {
		t.cfg.Logger.Warn("rejecting peer", "rank", t.cfg.Rank, "source", src, "error", ErrBadHandshake)
		_ = conn.Close()
		return
	}

	for {
		f, err := wire.ReadFrame(r, t.cfg.Limits)
		if err != nil {
			if !t.isClosed() {
				t.cfg.Logger.Debug("peer stream ended", "rank", t.cfg.Rank, "source", src, "error", err)
			}
			return
		}
		if err := t.box.Deliver(src, f.Header.Sequence, f.Payload); err != nil {
			t.cfg.Logger.Error("dropping frame", "rank", t.cfg.Rank, "source", src, "error", err)
		}
	}
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Send implements comm.Transport.
func (t *Transport) Send(ctx context.Context, dst int, seq uint64, payload []byte) error {
	if dst < 0 || dst >= t.cfg.Size {
		return fmt.Errorf("%w: %d", comm.ErrRankOutOfRange, dst)
	}
	if dst == t.cfg.Rank {
		return t.box.Deliver(dst, seq, payload)
	}
	t.mu.Lock()
	p := t.peers[dst]
	t.mu.Unlock()
	if p == nil {
		return fmt.Errorf("%w: no connection to rank %d", ErrNotConnected, dst)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	}
	if _, err := wire.WriteFrame(p.w, uint32(t.cfg.Rank), seq, 0, payload, t.cfg.Compression, t.cfg.Limits); err != nil {
		return err
	}
	return p.w.Flush()
}

// Recv implements comm.Transport.
func (t *Transport) Recv(ctx context.Context, src int, seq uint64) ([]byte, error) {
	if src < 0 || src >= t.cfg.Size {
		return nil, fmt.Errorf("%w: %d", comm.ErrRankOutOfRange, src)
	}
	payload, err := t.box.Recv(ctx, src, seq)
	if errors.Is(err, mailbox.ErrClosed) {
		return nil, comm.ErrClosed
	}
	return payload, err
}

// Close shuts down the listener and every connection and waits for the
// reader goroutines to exit.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	incoming := t.incoming
	peers := t.peers
	t.mu.Unlock()

	err := t.ln.Close()
	for _, p := range peers {
		if p != nil {
			p.mu.Lock()
			_ = p.w.Flush()
			_ = p.conn.Close()
			p.mu.Unlock()
		}
	}
	for _, c := range incoming {
		_ = c.Close()
	}
	t.box.Close()
	t.wg.Wait()
	return err
}
