// Package controller drives a HID mouse transport: it starts the square
// movement when a host connects, stops it on disconnect and keeps the device
// advertising so a new host can connect.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chaz8081/squaremouse/internal/hid"
	"github.com/chaz8081/squaremouse/internal/pattern"
)

// State is the controller's lifecycle state.
type State int32

const (
	// Idle means no host is connected and no reports are emitted.
	Idle State = iota
	// Active means a host is connected and the movement task is running.
	Active
	// Stopping is terminal: the transport has been stopped.
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Event is an input to the state machine.
type Event int

const (
	// EventConnected is posted when the transport reports a host connection.
	EventConnected Event = iota
	// EventDisconnected is posted when the transport reports the host left.
	EventDisconnected
	// EventSubmitFailed is raised internally when a motion report fails.
	EventSubmitFailed
	// EventShutdown requests a terminal stop.
	EventShutdown
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSubmitFailed:
		return "submit-failed"
	case EventShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

var (
	// ErrInvalidOptions is wrapped by New for rejected Options.
	ErrInvalidOptions = errors.New("controller: invalid options")
	// ErrStopped is returned by Start after the controller was shut down.
	ErrStopped = errors.New("controller: stopped")
	// ErrRunning is returned by Close while Run is executing.
	ErrRunning = errors.New("controller: Run in progress")
)

// AdvertiseError reports that advertising could not be started even after
// re-initializing the transport once. The controller stays Idle and does not
// retry on its own.
type AdvertiseError struct {
	Err error
}

func (e *AdvertiseError) Error() string {
	return fmt.Sprintf("controller: advertising failed after retry: %v", e.Err)
}

func (e *AdvertiseError) Unwrap() error { return e.Err }

// Options configures the movement task.
type Options struct {
	StepSize    int           // side length of the square in HID units
	Interval    time.Duration // time between motion reports
	SettleDelay time.Duration // wait after connect before the first report
}

// DefaultOptions returns the stock square: 5 units every 500ms.
func DefaultOptions() Options {
	return Options{
		StepSize: pattern.DefaultStep,
		Interval: 500 * time.Millisecond,
	}
}

// Validate rejects non-positive step sizes and intervals.
func (o Options) Validate() error {
	if o.StepSize <= 0 {
		return fmt.Errorf("%w: step size must be > 0, got %d", ErrInvalidOptions, o.StepSize)
	}
	if o.Interval <= 0 {
		return fmt.Errorf("%w: interval must be > 0, got %s", ErrInvalidOptions, o.Interval)
	}
	if o.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay must be >= 0, got %s", ErrInvalidOptions, o.SettleDelay)
	}
	return nil
}

// ticker is the subset of *time.Ticker the movement task needs.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) ticker { return stdTicker{time.NewTicker(d)} }

// eventQueueSize bounds transport notifications waiting for Run.
const eventQueueSize = 16

// Controller owns the connection state machine for one transport.
//
// Transport callbacks only enqueue events; every state change, tick and the
// step counter are handled on the goroutine executing Run.
type Controller struct {
	transport hid.Transport
	opts      Options
	square    *pattern.Square

	state   atomic.Int32
	running atomic.Bool
	events  chan Event
	resyncC chan struct{} // signalled when events overflowed

	quit     chan struct{}
	quitOnce sync.Once

	// Owned by Run.
	ticker  ticker
	tickC   <-chan time.Time
	settleC <-chan time.Time

	newTicker func(time.Duration) ticker
	after     func(time.Duration) <-chan time.Time
}

// New creates a Controller for transport t.
func New(t hid.Transport, opts Options) (*Controller, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	square, err := pattern.New(opts.StepSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return &Controller{
		transport: t,
		opts:      opts,
		square:    square,
		events:    make(chan Event, eventQueueSize),
		resyncC:   make(chan struct{}, 1),
		quit:      make(chan struct{}),
		newTicker: newStdTicker,
		after:     time.After,
	}, nil
}

// State returns the current state. Safe for concurrent use.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		slog.Info("[MOUSE] state change", "from", prev, "to", s)
	}
}

// Start brings the transport online, subscribes to its connection state and
// begins advertising. A terminal advertising failure is returned as
// *AdvertiseError.
func (c *Controller) Start() error {
	if c.State() == Stopping {
		return ErrStopped
	}
	c.transport.SetStateChangeHandler(c.onStateChange)

	if err := c.transport.Start(); err != nil {
		if !hid.IsTransportError(err) {
			return fmt.Errorf("controller: start transport: %w", err)
		}
		slog.Warn("[MOUSE] transport start failed", "error", err)
	}
	return c.advertise()
}

// Run processes connection events and movement ticks until ctx is cancelled
// or Shutdown is called, in which case it stops the transport and returns
// nil. It returns early with *AdvertiseError if re-advertising fails after a
// disconnect, leaving the controller Idle; the caller may call Run again or
// Close. Non-transport errors from the transport are returned as-is.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer c.running.Store(false)

	for c.State() != Stopping {
		var err error
		select {
		case <-ctx.Done():
			err = c.handle(EventShutdown)
		case <-c.quit:
			err = c.handle(EventShutdown)
		case ev := <-c.events:
			err = c.handle(ev)
		case <-c.resyncC:
			err = c.resync()
		case <-c.settleC:
			c.settleC = nil
			c.startTicker()
		case <-c.tickC:
			err = c.tick()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Shutdown asks Run to stop the transport and exit. Safe to call more than
// once and from any goroutine.
func (c *Controller) Shutdown() {
	c.quitOnce.Do(func() {
		close(c.quit)
	})
}

// Close stops the controller and the transport when Run is not executing,
// e.g. after Run returned an *AdvertiseError. It is a no-op once stopped.
func (c *Controller) Close() error {
	if c.running.Load() {
		return ErrRunning
	}
	c.Shutdown()
	return c.handle(EventShutdown)
}

// onStateChange is registered with the transport and may run on any goroutine.
func (c *Controller) onStateChange(s hid.ConnectionState) {
	ev := EventDisconnected
	if s == hid.Connected {
		ev = EventConnected
	}
	select {
	case c.events <- ev:
	default:
		slog.Warn("[MOUSE] event queue full, resyncing with transport", "event", ev)
		select {
		case c.resyncC <- struct{}{}:
		default:
		}
	}
}

// resync discards queued notifications and applies the transport's current
// connection state instead.
func (c *Controller) resync() error {
drain:
	for {
		select {
		case <-c.events:
		default:
			break drain
		}
	}
	ev := EventDisconnected
	if c.transport.State() == hid.Connected {
		ev = EventConnected
	}
	slog.Debug("[MOUSE] resync", "event", ev)
	return c.handle(ev)
}

// handle applies one event to the state machine. Inputs that are not valid
// in the current state are ignored.
func (c *Controller) handle(ev Event) error {
	state := c.State()
	switch state {
	case Idle:
		switch ev {
		case EventConnected:
			c.activate()
			return nil
		case EventShutdown:
			return c.stop()
		}
	case Active:
		switch ev {
		case EventDisconnected, EventSubmitFailed:
			return c.deactivate(ev)
		case EventShutdown:
			return c.stop()
		}
	case Stopping:
		return nil
	}
	slog.Debug("[MOUSE] ignoring event", "state", state, "event", ev)
	return nil
}

func (c *Controller) activate() {
	c.square.Reset()
	c.setState(Active)
	if c.opts.SettleDelay > 0 {
		slog.Info("[MOUSE] host connected, waiting before moving", "delay", c.opts.SettleDelay)
		c.settleC = c.after(c.opts.SettleDelay)
		return
	}
	slog.Info("[MOUSE] host connected")
	c.startTicker()
}

func (c *Controller) deactivate(ev Event) error {
	slog.Warn("[MOUSE] host lost", "reason", ev)
	c.cancelEmission()
	c.setState(Idle)
	return c.advertise()
}

func (c *Controller) stop() error {
	c.cancelEmission()
	c.setState(Stopping)
	if err := c.transport.Stop(); err != nil {
		if !hid.IsTransportError(err) {
			return fmt.Errorf("controller: stop transport: %w", err)
		}
		slog.Warn("[MOUSE] transport stop failed", "error", err)
	}
	slog.Info("[MOUSE] stopped")
	return nil
}

func (c *Controller) startTicker() {
	c.cancelEmission()
	c.ticker = c.newTicker(c.opts.Interval)
	c.tickC = c.ticker.C()
	slog.Info("[MOUSE] square movement started", "step", c.opts.StepSize, "interval", c.opts.Interval)
}

// cancelEmission stops the movement task. It is a no-op if nothing runs.
func (c *Controller) cancelEmission() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.tickC = nil
	c.settleC = nil
}

// tick emits the next side of the square. A transport failure is handled
// like a disconnect notification.
func (c *Controller) tick() error {
	if c.State() != Active {
		return nil
	}
	d := c.square.Next()
	err := c.transport.SubmitMotion(d.DX, d.DY)
	if err == nil {
		slog.Debug("[MOUSE] moved", "dx", d.DX, "dy", d.DY)
		return nil
	}
	if !hid.IsTransportError(err) {
		return fmt.Errorf("controller: submit motion: %w", err)
	}
	slog.Warn("[MOUSE] motion report failed", "error", err)
	return c.handle(EventSubmitFailed)
}

// advertise starts advertising, re-initializing the transport and trying
// once more on failure.
func (c *Controller) advertise() error {
	err := c.transport.StartAdvertising()
	if err == nil {
		slog.Info("[MOUSE] advertising")
		return nil
	}
	if !hid.IsTransportError(err) {
		return fmt.Errorf("controller: start advertising: %w", err)
	}
	slog.Warn("[MOUSE] advertising failed, reinitializing transport", "error", err)

	if err := c.transport.Start(); err != nil {
		if !hid.IsTransportError(err) {
			return fmt.Errorf("controller: restart transport: %w", err)
		}
		slog.Warn("[MOUSE] transport reinitialization failed", "error", err)
	}

	err = c.transport.StartAdvertising()
	if err == nil {
		slog.Info("[MOUSE] advertising after reinitialization")
		return nil
	}
	if !hid.IsTransportError(err) {
		return fmt.Errorf("controller: start advertising: %w", err)
	}
	slog.Error("[MOUSE] advertising unavailable", "error", err)
	return &AdvertiseError{Err: err}
}
