package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/beacon/ibeacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/mobel/go-ibeacon-exporter/collector/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQueueSize     = 64
	DefaultMaxRetries    = 2
	DefaultBackoffFactor = 500 * time.Millisecond
)

type Options struct {
	// Advertisements waiting to be decoded. Further advertisements are dropped while the queue
	// is full.
	QueueSize int
	// Number of times a failed scan is restarted before Run gives up. Zero selects
	// DefaultMaxRetries, a negative value disables restarts.
	MaxRetries int
	// Delay before the first restart, doubled on every further one. Zero selects
	// DefaultBackoffFactor.
	BackoffFactor time.Duration

	// OnResult, if set, receives the outcome of every decoded advertisement. It runs on the
	// decode worker and must not block.
	OnResult func(model.Result)
}

// Scanner is the source of advertisements, usually a *ble.Handle.
type Scanner interface {
	ScanAll(ctx context.Context, onAdvertisement func(ble.Advertisement)) error
}

// Collector decodes advertisements and keeps the latest record per device in a registry.
type Collector struct {
	registry *beacon.Registry
	opts     Options
}

func New(reg *beacon.Registry, opts Options) *Collector {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	} else if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = DefaultBackoffFactor
	}

	return &Collector{
		registry: reg,
		opts:     opts,
	}
}

// Handle decodes f and stores the resulting record, if any. Unrecognized frames leave the
// registry untouched.
func (c *Collector) Handle(f beacon.Frame) (beacon.Record, error) {
	rec, err := ibeacon.Parse(f)

	if err == nil {
		c.registry.Upsert(rec)
		decodedCounter.WithLabelValues(rec.Vendor.String()).Inc()

		log.Trace().
			Str("Address", rec.BluetoothAddress).
			Stringer("Record", rec).
			Msg("collector: decoded beacon")
	} else {
		unrecognizedCounter.Inc()
	}

	if c.opts.OnResult != nil {
		c.opts.OnResult(model.Result{
			Frame:  f,
			Record: rec,
			Error:  err,
		})
	}

	return rec, err
}

// Run scans until ctx is done, the scanner stops on its own or the scan failed more than
// MaxRetries times. Advertisements are decoded one at a time on a single worker.
func (c *Collector) Run(parentCtx context.Context, scanner Scanner) error {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	frames := make(chan beacon.Frame, c.opts.QueueSize)

	log.Info().
		Int("QueueSize", c.opts.QueueSize).
		Int("MaxRetries", c.opts.MaxRetries).
		Dur("BackoffFactor", c.opts.BackoffFactor).
		Msg("Starting beacon collector")

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// stop the worker once scanning is over, for whatever reason.
		defer cancel()

		return c.scan(ctx, scanner, frames)
	})

	eg.Go(func() error {
		c.work(ctx, frames)
		return nil
	})

	return eg.Wait()
}

func (c *Collector) work(ctx context.Context, frames <-chan beacon.Frame) {
	for {
		select {
		case f := <-frames:
			c.Handle(f)
		case <-ctx.Done():
			// decode what was already queued, without waiting for more.
			for {
				select {
				case f := <-frames:
					c.Handle(f)
				default:
					return
				}
			}
		}
	}
}

func (c *Collector) scan(ctx context.Context, scanner Scanner, frames chan<- beacon.Frame) error {
	onAdvertisement := func(a ble.Advertisement) {
		enqueue(ctx, a, frames)
	}

	for attempt := 0; ; attempt += 1 {
		err := scanner.ScanAll(ctx, onAdvertisement)

		// context cancellation is how scans are stopped.
		if ctx.Err() != nil {
			log.Debug().Err(err).Msg("collector: scan stopped")
			return nil
		}

		if err == nil {
			log.Info().Msg("collector: scanner finished")
			return nil
		}

		if attempt >= c.opts.MaxRetries {
			return fmt.Errorf("scan failed after %d attempts: %w", attempt+1, err)
		}

		backoff := c.opts.BackoffFactor << int64(attempt)

		if backoff < 0 {
			backoff = DefaultBackoffFactor
		}

		log.Warn().
			Err(err).
			Int("RetriesLeft", c.opts.MaxRetries-attempt).
			Dur("Backoff", backoff).
			Msg("Scan failed - will retry")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		scanRestartsCounter.Inc()
	}
}
