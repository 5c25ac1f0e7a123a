// Package ble exposes the mouse as a Bluetooth Low Energy HID-over-GATT
// peripheral. The radio is reached through the Adapter interface so the
// GATT layout and connection handling can be tested without hardware.
package ble

// GATT assigned numbers used by the HID-over-GATT profile.
const (
	ServiceHID     uint16 = 0x1812
	ServiceBattery uint16 = 0x180F

	CharBootMouseInput  uint16 = 0x2A33
	CharBatteryLevel    uint16 = 0x2A19
	CharHIDInformation  uint16 = 0x2A4A
	CharReportMap       uint16 = 0x2A4B
	CharHIDControlPoint uint16 = 0x2A4C
	CharReport          uint16 = 0x2A4D
	CharProtocolMode    uint16 = 0x2A4E
)

// Characteristic is a local GATT characteristic. Writing updates its value
// and notifies subscribed hosts.
type Characteristic interface {
	Write(data []byte) error
}

// CharacteristicSpec describes one characteristic of a local service.
type CharacteristicSpec struct {
	UUID     uint16
	Value    []byte
	Notify   bool              // host may subscribe to notifications
	Writable bool              // host may write the value
	OnWrite  func(data []byte) // called on host writes, if set
}

// ServiceSpec describes a local GATT service.
type ServiceSpec struct {
	UUID            uint16
	Characteristics []CharacteristicSpec
}

// Adapter abstracts the BLE peripheral stack for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// AddService registers a GATT service. The returned characteristics are
	// in the same order as svc.Characteristics.
	AddService(svc ServiceSpec) ([]Characteristic, error)
	// ConfigureAdvertisement sets the advertised name and service UUIDs.
	ConfigureAdvertisement(localName string, serviceUUIDs []uint16) error
	// StartAdvertisement makes the peripheral discoverable and connectable.
	StartAdvertisement() error
	// StopAdvertisement stops advertising.
	StopAdvertisement() error
	// SetConnectHandler registers a callback for host connects and disconnects.
	SetConnectHandler(handler func(connected bool))
}
