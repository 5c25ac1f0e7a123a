// Package hid defines the contract between the mouse controller and the
// device that delivers relative-motion reports to a connected host, plus the
// report encoding shared by the concrete transports.
package hid

import (
	"errors"
	"fmt"
)

// ConnectionState reports whether a host is currently connected.
type ConnectionState int

const (
	// Disconnected means no host is connected.
	Disconnected ConnectionState = iota
	// Connected means a host is connected and can receive reports.
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport is the device side of a HID mouse. Implementations may invoke the
// state-change handler from any goroutine.
type Transport interface {
	// Start brings the device service online. Calling it again is a no-op.
	Start() error
	// Stop tears down the service and releases resources.
	Stop() error
	// State returns the current connection state.
	State() ConnectionState
	// SetStateChangeHandler registers the callback invoked on connect and
	// disconnect. A nil handler disables notifications.
	SetStateChangeHandler(handler func(ConnectionState))
	// StartAdvertising makes the device discoverable. It fails with
	// ErrAdvertiserNotReady if Start has not brought the advertiser up.
	StartAdvertising() error
	// SubmitMotion pushes one relative-motion sample to the connected host.
	SubmitMotion(dx, dy int16) error
}

var (
	// ErrNotStarted is returned by operations that need a started transport.
	ErrNotStarted = errors.New("transport not started")
	// ErrNotConnected is returned when a report is submitted with no host.
	ErrNotConnected = errors.New("no host connected")
	// ErrAdvertiserNotReady is returned when advertising has not been configured.
	ErrAdvertiserNotReady = errors.New("advertiser not initialized")
)

// TransportError wraps any failure reported by a Transport. Callers treat it
// as a loss of connection; anything else is a programming error.
type TransportError struct {
	Op  string // operation that failed, e.g. "submit" or "advertise"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hid transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err for operation op. It returns nil if err is nil.
func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
