package ble

import (
	"errors"
	"sync"
	"testing"
)

// mockCharacteristic records writes.
type mockCharacteristic struct {
	mu     sync.Mutex
	spec   CharacteristicSpec
	writes [][]byte
	err    error
}

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// SimulateHostWrite delivers a write from the connected host.
func (c *mockCharacteristic) SimulateHostWrite(data []byte) {
	if c.spec.OnWrite != nil {
		c.spec.OnWrite(data)
	}
}

// mockAdapter simulates the BLE peripheral stack.
type mockAdapter struct {
	mu        sync.Mutex
	enables   int
	services  map[uint16][]*mockCharacteristic
	addOrder  []uint16
	advName   string
	advUUIDs  []uint16
	advStarts int
	advStops  int
	// registered mirrors BlueZ: an advertisement stays registered, even
	// after a central connects, until StopAdvertisement unregisters it.
	registered bool
	handler    func(connected bool)

	enableErr    error
	addErr       map[uint16]error
	configureErr error
	startErr     error
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{
		services: make(map[uint16][]*mockCharacteristic),
		addErr:   make(map[uint16]error),
	}
}

func (a *mockAdapter) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enables++
	return a.enableErr
}

func (a *mockAdapter) AddService(svc ServiceSpec) ([]Characteristic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.addErr[svc.UUID]; err != nil {
		return nil, err
	}
	mocks := make([]*mockCharacteristic, len(svc.Characteristics))
	chars := make([]Characteristic, len(svc.Characteristics))
	for i, cs := range svc.Characteristics {
		mocks[i] = &mockCharacteristic{spec: cs}
		chars[i] = mocks[i]
	}
	a.services[svc.UUID] = mocks
	a.addOrder = append(a.addOrder, svc.UUID)
	return chars, nil
}

func (a *mockAdapter) ConfigureAdvertisement(name string, uuids []uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.configureErr != nil {
		return a.configureErr
	}
	if a.registered {
		return errAdvertisementRegistered
	}
	a.advName = name
	a.advUUIDs = uuids
	return nil
}

func (a *mockAdapter) StartAdvertisement() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advStarts++
	if a.startErr != nil {
		return a.startErr
	}
	if a.registered {
		return errAdvertisementRegistered
	}
	a.registered = true
	return nil
}

func (a *mockAdapter) StopAdvertisement() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advStops++
	a.registered = false
	return nil
}

func (a *mockAdapter) isRegistered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registered
}

func (a *mockAdapter) SetConnectHandler(h func(connected bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

// SimulateConnect fires the connect handler as the stack would.
func (a *mockAdapter) SimulateConnect(connected bool) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h != nil {
		h(connected)
	}
}

// char returns the mock characteristic uuid of service svc.
func (a *mockAdapter) char(svc, uuid uint16) *mockCharacteristic {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.services[svc] {
		if c.spec.UUID == uuid {
			return c
		}
	}
	return nil
}

var (
	errMock                    = errors.New("mock failure")
	errAdvertisementRegistered = errors.New("advertisement is already started")
)

func TestMockAdapterImplementsInterface(t *testing.T) {
	var _ Adapter = (*mockAdapter)(nil)
}

func TestMockCharacteristicImplementsInterface(t *testing.T) {
	var _ Characteristic = (*mockCharacteristic)(nil)
}
