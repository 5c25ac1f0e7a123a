// Package inject provides a loopback HID transport that moves the local
// pointer with robotgo instead of notifying a Bluetooth host. It lets the
// square movement be demonstrated on a machine without a BLE radio.
package inject

import (
	"log/slog"
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/chaz8081/squaremouse/internal/hid"
)

// DesktopMouse implements hid.Transport against the local desktop. The
// desktop acts as a host that connects as soon as advertising starts.
type DesktopMouse struct {
	move func(dx, dy int)

	mu      sync.Mutex
	started bool
	state   hid.ConnectionState
	handler func(hid.ConnectionState)
}

// Compile-time interface satisfaction check.
var _ hid.Transport = (*DesktopMouse)(nil)

// NewDesktopMouse creates a DesktopMouse backed by robotgo.
func NewDesktopMouse() *DesktopMouse {
	return &DesktopMouse{
		move: func(dx, dy int) { robotgo.MoveRelative(dx, dy) },
	}
}

func (d *DesktopMouse) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		d.started = true
		slog.Info("[DESKTOP] pointer transport ready")
	}
	return nil
}

func (d *DesktopMouse) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	d.state = hid.Disconnected
	slog.Info("[DESKTOP] pointer transport stopped")
	return nil
}

func (d *DesktopMouse) State() hid.ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DesktopMouse) SetStateChangeHandler(handler func(hid.ConnectionState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// StartAdvertising "connects" the local desktop. The state-change handler is
// invoked on a new goroutine, as a real stack would deliver it.
func (d *DesktopMouse) StartAdvertising() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return hid.NewTransportError("advertise", hid.ErrAdvertiserNotReady)
	}
	if d.state == hid.Connected {
		return nil
	}
	d.state = hid.Connected
	if h := d.handler; h != nil {
		go h(hid.Connected)
	}
	return nil
}

// Disconnect drops the simulated host, as if it went out of range.
func (d *DesktopMouse) Disconnect() {
	d.mu.Lock()
	if d.state == hid.Disconnected {
		d.mu.Unlock()
		return
	}
	d.state = hid.Disconnected
	h := d.handler
	d.mu.Unlock()
	if h != nil {
		h(hid.Disconnected)
	}
}

// SubmitMotion moves the local pointer by (dx, dy) pixels.
func (d *DesktopMouse) SubmitMotion(dx, dy int16) error {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()
	if state != hid.Connected {
		return hid.NewTransportError("submit", hid.ErrNotConnected)
	}
	d.move(int(dx), int(dy))
	return nil
}
