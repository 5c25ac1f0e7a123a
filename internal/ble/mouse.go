package ble

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chaz8081/squaremouse/internal/hid"
)

// Protocol Mode and HID Control Point values written by the host.
const (
	protocolModeBoot   byte = 0x00
	protocolModeReport byte = 0x01

	controlSuspend     byte = 0x00
	controlExitSuspend byte = 0x01
)

// hidInformation is bcdHID 1.11, country code 0, normally connectable.
var hidInformation = []byte{0x11, 0x01, 0x00, 0x02}

// DefaultDeviceName is the advertised name when none is configured.
const DefaultDeviceName = "skiing mouse"

// HIDMouse is a HID-over-GATT mouse peripheral. It implements hid.Transport
// and is safe for concurrent use.
type HIDMouse struct {
	adapter Adapter
	name    string

	mu         sync.Mutex
	enabled    bool
	advReady   bool
	registered bool // advertisement registered with the stack
	state      hid.ConnectionState
	handler    func(hid.ConnectionState)
	report     Characteristic
	bootReport Characteristic

	bootProtocol atomic.Bool
	suspended    atomic.Bool
}

// Compile-time interface satisfaction check.
var _ hid.Transport = (*HIDMouse)(nil)

// NewHIDMouse creates a mouse that advertises as name.
func NewHIDMouse(adapter Adapter, name string) *HIDMouse {
	if name == "" {
		name = DefaultDeviceName
	}
	return &HIDMouse{adapter: adapter, name: name}
}

// Start enables the adapter, registers the HID and Battery services and
// configures advertising. Each step runs only until it has succeeded once,
// so Start can be called again after a partial failure.
func (m *HIDMouse) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		if err := m.adapter.Enable(); err != nil {
			return hid.NewTransportError("enable adapter", err)
		}
		m.adapter.SetConnectHandler(m.onConnect)
		m.enabled = true
	}

	if m.report == nil {
		chars, err := m.adapter.AddService(m.hidService())
		if err != nil {
			return hid.NewTransportError("add HID service", err)
		}
		// Order matches hidService: report is index 2, boot input index 3.
		m.report, m.bootReport = chars[2], chars[3]
		if _, err := m.adapter.AddService(batteryService()); err != nil {
			slog.Warn("[BLE] battery service unavailable", "error", err)
		}
	}

	if !m.advReady {
		if err := m.adapter.ConfigureAdvertisement(m.name, []uint16{ServiceHID}); err != nil {
			return hid.NewTransportError("configure advertisement", err)
		}
		m.advReady = true
		slog.Info("[BLE] HID mouse service ready", "name", m.name)
	}
	return nil
}

// Stop unregisters the advertisement and drops the connection state. The
// GATT services stay registered with the stack, which offers no way to
// remove them.
func (m *HIDMouse) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.registered {
		if stopErr := m.adapter.StopAdvertisement(); stopErr != nil {
			err = hid.NewTransportError("stop advertising", stopErr)
		}
		m.registered = false
	}
	m.advReady = false
	m.state = hid.Disconnected
	slog.Info("[BLE] HID mouse service stopped")
	return err
}

func (m *HIDMouse) State() hid.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *HIDMouse) SetStateChangeHandler(handler func(hid.ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// StartAdvertising (re)starts advertising. The stack keeps an advertisement
// registered after a central connects, so any previous registration is
// removed before registering again.
func (m *HIDMouse) StartAdvertising() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.advReady {
		return hid.NewTransportError("advertise", hid.ErrAdvertiserNotReady)
	}
	if m.registered {
		if err := m.adapter.StopAdvertisement(); err != nil {
			slog.Debug("[BLE] unregister stale advertisement", "error", err)
		}
		m.registered = false
	}
	if err := m.adapter.StartAdvertisement(); err != nil {
		return hid.NewTransportError("advertise", err)
	}
	m.registered = true
	slog.Info("[BLE] advertising", "name", m.name)
	return nil
}

// SubmitMotion notifies the host of a relative movement. Displacements that
// exceed the 8-bit report range are sent as several reports.
func (m *HIDMouse) SubmitMotion(dx, dy int16) error {
	m.mu.Lock()
	state, report, boot := m.state, m.report, m.bootReport
	m.mu.Unlock()

	if state != hid.Connected {
		return hid.NewTransportError("submit", hid.ErrNotConnected)
	}
	if report == nil {
		return hid.NewTransportError("submit", hid.ErrNotStarted)
	}
	if m.suspended.Load() {
		slog.Debug("[BLE] host suspended, dropping motion", "dx", dx, "dy", dy)
		return nil
	}

	useBoot := m.bootProtocol.Load()
	for _, r := range hid.SplitMotion(dx, dy) {
		var err error
		if useBoot {
			err = boot.Write(r.BootBytes())
		} else {
			err = report.Write(r.Bytes())
		}
		if err != nil {
			return hid.NewTransportError("submit", err)
		}
	}
	return nil
}

// onConnect is called by the adapter on connect and disconnect.
func (m *HIDMouse) onConnect(connected bool) {
	state := hid.Disconnected
	if connected {
		state = hid.Connected
	}

	m.mu.Lock()
	if m.state == state {
		m.mu.Unlock()
		return
	}
	m.state = state
	handler := m.handler
	m.mu.Unlock()

	// Every connection starts in report protocol, not suspended.
	m.bootProtocol.Store(false)
	m.suspended.Store(false)

	if connected {
		slog.Info("[BLE] host connected")
	} else {
		slog.Warn("[BLE] host disconnected")
	}
	if handler != nil {
		handler(state)
	}
}

func (m *HIDMouse) hidService() ServiceSpec {
	return ServiceSpec{
		UUID: ServiceHID,
		Characteristics: []CharacteristicSpec{
			{
				UUID:     CharProtocolMode,
				Value:    []byte{protocolModeReport},
				Writable: true,
				OnWrite:  m.onProtocolMode,
			},
			{
				UUID:  CharReportMap,
				Value: hid.ReportMap,
			},
			{
				UUID:   CharReport,
				Value:  hid.MouseReport{}.Bytes(),
				Notify: true,
			},
			{
				UUID:   CharBootMouseInput,
				Value:  hid.MouseReport{}.BootBytes(),
				Notify: true,
			},
			{
				UUID:  CharHIDInformation,
				Value: hidInformation,
			},
			{
				UUID:     CharHIDControlPoint,
				Value:    []byte{controlExitSuspend},
				Writable: true,
				OnWrite:  m.onControlPoint,
			},
		},
	}
}

func batteryService() ServiceSpec {
	return ServiceSpec{
		UUID: ServiceBattery,
		Characteristics: []CharacteristicSpec{
			{UUID: CharBatteryLevel, Value: []byte{100}, Notify: true},
		},
	}
}

func (m *HIDMouse) onProtocolMode(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case protocolModeBoot:
		m.bootProtocol.Store(true)
		slog.Info("[BLE] host selected boot protocol")
	case protocolModeReport:
		m.bootProtocol.Store(false)
		slog.Info("[BLE] host selected report protocol")
	default:
		slog.Warn("[BLE] ignoring unknown protocol mode", "mode", data[0])
	}
}

func (m *HIDMouse) onControlPoint(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case controlSuspend:
		m.suspended.Store(true)
		slog.Info("[BLE] host suspended")
	case controlExitSuspend:
		m.suspended.Store(false)
		slog.Info("[BLE] host resumed")
	}
}
