package resource

import (
	"context"
	"io"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds transport resource limits.
type Config struct {
	// MaxConcurrentDials bounds the number of peer connections opened at once.
	// If 0, defaults to 8.
	MaxConcurrentDials int64

	// BandwidthBytesPerSec is the maximum outgoing throughput.
	// If 0, unlimited.
	BandwidthBytesPerSec int64
}

// Controller governs connection setup concurrency and outgoing bandwidth.
type Controller struct {
	cfg Config

	dialSem   *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentDials <= 0 {
		cfg.MaxConcurrentDials = 8
	}

	c := &Controller{
		cfg:     cfg,
		dialSem: semaphore.NewWeighted(cfg.MaxConcurrentDials),
	}

	if cfg.BandwidthBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.BandwidthBytesPerSec), int(cfg.BandwidthBytesPerSec))
	}

	return c
}

// AcquireDial reserves a dial slot. Blocks if all slots are busy.
func (c *Controller) AcquireDial(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.dialSem.Acquire(ctx, 1)
}

// ReleaseDial releases a dial slot.
func (c *Controller) ReleaseDial() {
	if c == nil {
		return
	}
	c.dialSem.Release(1)
}

// TryAcquireDial attempts to reserve a dial slot without blocking.
func (c *Controller) TryAcquireDial() bool {
	if c == nil {
		return true
	}
	return c.dialSem.TryAcquire(1)
}

// AcquireIO waits until the bandwidth limit allows the specified number of
// bytes. Requests larger than one second of budget are served in slices.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// BandwidthLimit returns the configured limit in bytes per second (0 if unlimited).
func (c *Controller) BandwidthLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.BandwidthBytesPerSec
}

// RateLimitedWriter wraps an io.Writer with the controller's bandwidth limit.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{w: w, rc: rc, ctx: ctx}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}
