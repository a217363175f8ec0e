package ble

// AD types, see Supplement to the Bluetooth Core Specification, Part A.
const (
	adTypeFlags            = 0x01
	adTypeComplete128      = 0x07
	adTypeServiceData16    = 0x16
	adTypeManufacturerData = 0xff
)

// LE General Discoverable, BR/EDR not supported, as sent by most beacons.
const defaultAdFlags = 0x1a

const maxAdFieldLen = 0xff - 1

// go-ble on Linux exposes the raw advertising data through this method.
type rawAdvertisement interface {
	Data() []byte
}

// Frame returns the raw advertising payload of a. When the platform does not expose it, an
// equivalent payload is rebuilt from the parsed fields: a flags field followed by the
// manufacturer data, or else the first 128-bit service UUID, or else the first 16-bit service
// data. The rebuilt field data always starts at offset 5, where a 3 byte flags field places it
// on the air.
func Frame(a Advertisement) []byte {
	if raw, ok := a.(rawAdvertisement); ok {
		if data := raw.Data(); len(data) > 0 {
			return data
		}
	}

	frame := []byte{0x02, adTypeFlags, defaultAdFlags}

	if md := a.ManufacturerData(); len(md) > 0 {
		return appendField(frame, adTypeManufacturerData, md)
	}

	for _, u := range a.Services() {
		if len(u) == 16 {
			return appendField(frame, adTypeComplete128, u)
		}
	}

	for _, sd := range a.ServiceData() {
		if len(sd.UUID) == 2 {
			field := make([]byte, 0, len(sd.UUID)+len(sd.Data))
			field = append(field, sd.UUID...)
			field = append(field, sd.Data...)

			return appendField(frame, adTypeServiceData16, field)
		}
	}

	return frame
}

func appendField(frame []byte, typ byte, data []byte) []byte {
	if len(data) > maxAdFieldLen {
		data = data[:maxAdFieldLen]
	}

	frame = append(frame, byte(len(data)+1), typ)

	return append(frame, data...)
}
