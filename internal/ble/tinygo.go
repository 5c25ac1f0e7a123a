package ble

import (
	"fmt"
	"log/slog"
	"strings"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter implements Adapter on top of tinygo-org/bluetooth. On Linux
// this talks to BlueZ over D-Bus.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
}

// NewTinyGoAdapter wraps the system default Bluetooth adapter.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{adapter: bluetooth.DefaultAdapter}
}

func (a *TinyGoAdapter) Enable() error {
	return a.adapter.Enable()
}

func (a *TinyGoAdapter) AddService(spec ServiceSpec) ([]Characteristic, error) {
	handles := make([]bluetooth.Characteristic, len(spec.Characteristics))
	configs := make([]bluetooth.CharacteristicConfig, len(spec.Characteristics))

	for i, cs := range spec.Characteristics {
		flags := bluetooth.CharacteristicReadPermission
		if cs.Notify {
			flags |= bluetooth.CharacteristicNotifyPermission
		}
		if cs.Writable {
			flags |= bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission
		}

		cfg := bluetooth.CharacteristicConfig{
			Handle: &handles[i],
			UUID:   bluetooth.New16BitUUID(cs.UUID),
			Value:  cs.Value,
			Flags:  flags,
		}
		if cs.OnWrite != nil {
			onWrite := cs.OnWrite
			cfg.WriteEvent = func(_ bluetooth.Connection, offset int, value []byte) {
				// Long writes are not used by any HID characteristic.
				if offset != 0 {
					return
				}
				onWrite(value)
			}
		}
		configs[i] = cfg
	}

	err := a.adapter.AddService(&bluetooth.Service{
		UUID:            bluetooth.New16BitUUID(spec.UUID),
		Characteristics: configs,
	})
	if err != nil {
		return nil, fmt.Errorf("ble: add service 0x%04x: %w", spec.UUID, err)
	}

	chars := make([]Characteristic, len(handles))
	for i := range handles {
		chars[i] = &tinyGoCharacteristic{char: &handles[i]}
	}
	return chars, nil
}

func (a *TinyGoAdapter) ConfigureAdvertisement(localName string, serviceUUIDs []uint16) error {
	uuids := make([]bluetooth.UUID, len(serviceUUIDs))
	for i, u := range serviceUUIDs {
		uuids[i] = bluetooth.New16BitUUID(u)
	}
	adv := a.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    localName,
		ServiceUUIDs: uuids,
	}); err != nil {
		return fmt.Errorf("ble: configure advertisement: %w", err)
	}
	a.adv = adv
	return nil
}

func (a *TinyGoAdapter) StartAdvertisement() error {
	if a.adv == nil {
		return fmt.Errorf("ble: advertisement not configured")
	}
	return a.adv.Start()
}

// StopAdvertisement unregisters the advertisement. BlueZ answers
// DoesNotExist when it already dropped the registration itself.
func (a *TinyGoAdapter) StopAdvertisement() error {
	if a.adv == nil {
		return nil
	}
	if err := a.adv.Stop(); err != nil {
		if isDoesNotExist(err) {
			slog.Debug("[BLE] advertisement already unregistered", "error", err)
			return nil
		}
		return err
	}
	return nil
}

func isDoesNotExist(err error) bool {
	return strings.Contains(err.Error(), "org.bluez.Error.DoesNotExist")
}

func (a *TinyGoAdapter) SetConnectHandler(handler func(connected bool)) {
	a.adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		if handler != nil {
			handler(connected)
		}
	})
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinyGoCharacteristic struct {
	char *bluetooth.Characteristic
}

func (c *tinyGoCharacteristic) Write(data []byte) error {
	_, err := c.char.Write(data)
	return err
}
