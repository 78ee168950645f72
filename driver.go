package hfsm

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ykoski/hfsm/pkg/api"
)

// Driver errors.
var (
	// ErrQueueFull is returned by Send when the driver's event queue is at
	// capacity.
	ErrQueueFull = errors.New("hfsm: driver queue full")

	// ErrDriverClosed is returned when submitting to a stopped driver.
	ErrDriverClosed = errors.New("hfsm: driver closed")
)

const defaultQueueSize = 64

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithQueueSize sets the capacity of the driver's event queue.
func WithQueueSize(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithDriverLogger sets the logger used for the driver's own messages.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

type driverEvent struct {
	name    string
	payload any

	// reply is non-nil for SendSync; the loop sends the dispatch result
	// exactly once.
	reply chan error
}

// Driver serializes events from many goroutines onto one Engine. The
// engine itself is single-owner; the driver's loop goroutine is that owner
// and callers hand events over through a channel.
type Driver struct {
	eng       api.Engine
	logger    *slog.Logger
	queueSize int

	events chan driverEvent
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	startErr error
}

// NewDriver wraps eng. The driver does not start the engine until Start
// is called.
func NewDriver(eng Engine, opts ...DriverOption) *Driver {
	d := &Driver{
		eng:       eng,
		logger:    slog.Default(),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.events = make(chan driverEvent, d.queueSize)
	d.done = make(chan struct{})
	return d
}

// Start starts the engine and the dispatch loop. It returns the engine's
// Start error, if any; on error the driver is unusable. The context bounds
// the loop: when ctx is cancelled the loop drains nothing further and
// exits.
func (d *Driver) Start(ctx context.Context) error {
	d.startOnce.Do(func() {
		if err := d.eng.Start(); err != nil {
			d.startErr = err
			d.stopOnce.Do(func() { close(d.done) })
			return
		}

		d.wg.Add(1)
		go d.loop(ctx)
	})
	return d.startErr
}

func (d *Driver) loop(ctx context.Context) {
	defer d.wg.Done()
	// Context cancellation closes the driver so later Sends fail fast
	// instead of queueing events nobody will read.
	defer d.stopOnce.Do(func() { close(d.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case ev := <-d.events:
			err := d.eng.HandleEvent(ev.name, ev.payload)
			if ev.reply != nil {
				ev.reply <- err
				continue
			}
			if err != nil {
				d.logger.Warn("event dispatch failed",
					"engine", d.eng.ID(),
					"event", ev.name,
					"error", err,
				)
			}
		}
	}
}

// Send submits an event without waiting for its dispatch. It never blocks;
// a full queue yields ErrQueueFull. Dispatch failures are logged, not
// returned.
func (d *Driver) Send(name string, payload any) error {
	select {
	case <-d.done:
		return ErrDriverClosed
	default:
	}

	select {
	case d.events <- driverEvent{name: name, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendSync submits an event and waits for the engine's dispatch result or
// ctx cancellation.
func (d *Driver) SendSync(ctx context.Context, name string, payload any) error {
	select {
	case <-d.done:
		return ErrDriverClosed
	default:
	}

	reply := make(chan error, 1)
	select {
	case d.events <- driverEvent{name: name, payload: payload, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDriverClosed
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDriverClosed
	}
}

// Engine returns the wrapped engine. Only the driver's loop may dispatch
// events on it while the driver runs; accessors like Active are safe to
// call once the driver has stopped.
func (d *Driver) Engine() Engine { return d.eng }

// Stop shuts the loop down and waits for it to finish. Events still queued
// when Stop is called are dropped.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
