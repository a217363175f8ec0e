// Package bletest provides fakes for code consuming BLE advertisements.
package bletest

import (
	ble_mod "github.com/go-ble/ble"
)

type FakeAdvertisement struct {
	Name              string
	ManufacturerBytes []byte
	ServiceUUIDs      []ble_mod.UUID
	Services16        []ble_mod.ServiceData
	Signal            int
	Address           ble_mod.Addr
}

func (f FakeAdvertisement) LocalName() string {
	return f.Name
}

func (f FakeAdvertisement) ManufacturerData() []byte {
	return f.ManufacturerBytes
}

func (f FakeAdvertisement) ServiceData() []ble_mod.ServiceData {
	return f.Services16
}

func (f FakeAdvertisement) Services() []ble_mod.UUID {
	return f.ServiceUUIDs
}

func (f FakeAdvertisement) OverflowService() []ble_mod.UUID {
	return nil
}

func (f FakeAdvertisement) TxPowerLevel() int {
	return 0
}

func (f FakeAdvertisement) Connectable() bool {
	return false
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
	return nil
}

func (f FakeAdvertisement) RSSI() int {
	return f.Signal
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
	return f.Address
}

// RawAdvertisement additionally exposes the raw advertising data, like go-ble does on Linux.
type RawAdvertisement struct {
	FakeAdvertisement
	Raw []byte
}

func (r RawAdvertisement) Data() []byte {
	return r.Raw
}
