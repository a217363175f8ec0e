package ibeacon

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Candidate anchor offsets, tested in increasing order.
const (
	firstAnchor = 2
	lastAnchor  = 5
)

// Layout of the Apple profile, relative to the anchor.
const (
	markerLen     = 4
	uuidOffset    = 4
	majorOffset   = 20
	minorOffset   = 22
	txPowerOffset = 24
	profileLen    = 25
)

var (
	appleMarker    = []byte{0x02, 0x15}
	estimoteMarker = []byte{0x2d, 0x24, 0xbf, 0x16}
	gimbalMarker   = []byte{0xad, 0x77, 0x00, 0xc6}
)

// AirLocate, anchor 5:
// 02 01 1a 1a ff 4c 00 02 15                       # flags + Apple manufacturer prefix
// e2 c5 6d b5 df fb 48 d2 b0 60 d0 f5 a7 10 96 e0  # proximity uuid
// 00 00                                            # major
// 00 00                                            # minor
// c5                                               # calibrated tx power (signed)
//
// Estimote, anchor 5:
// 02 01 1a 11 07 2d 24 bf 16 ...
func findAnchor(data []byte) (anchor int, vendor beacon.Vendor, found bool) {
	for s := firstAnchor; s <= lastAnchor && s+markerLen <= len(data); s += 1 {
		switch {
		case bytes.Equal(data[s+2:s+4], appleMarker):
			return s, beacon.VendorApple, true
		case bytes.Equal(data[s:s+4], estimoteMarker):
			return s, beacon.VendorEstimote, true
		case bytes.Equal(data[s:s+4], gimbalMarker):
			return s, beacon.VendorGimbal, true
		}
	}

	return 0, 0, false
}

// Parse decodes a raw advertisement into a beacon record. Frames that carry no known marker,
// or that are too short for the marker they carry, yield an error satisfying
// beacon.IsUnrecognized.
func Parse(f beacon.Frame) (rec beacon.Record, err error) {
	data := f.Data
	anchor, vendor, found := findAnchor(data)

	if !found {
		log.Trace().
			Hex("Data", data).
			Msg("ibeacon: no beacon marker found in frame")

		return rec, errors.Wrapf(beacon.ErrNotBeacon, "no marker in bytes %d-%d of %x",
			firstAnchor, lastAnchor+markerLen-1, data)
	}

	if vendor != beacon.VendorApple {
		log.Trace().
			Stringer("Vendor", vendor).
			Str("Address", f.Address).
			Msg("ibeacon: proprietary beacon advertisement, identifiers cannot be read")

		return beacon.VendorRecord(vendor, f.Address), nil
	}

	if len(data) < anchor+profileLen {
		log.Trace().
			Hex("Data", data).
			Int("Anchor", anchor).
			Msg("ibeacon: apple marker found but frame is truncated")

		return rec, errors.Wrapf(beacon.ErrTruncatedFrame,
			"got %d bytes, want at least %d for profile at offset %d", len(data), anchor+profileLen,
			anchor)
	}

	profile := data[anchor : anchor+profileLen]

	// the 16 bytes are always a valid length, FromBytes cannot fail here.
	id, _ := uuid.FromBytes(profile[uuidOffset:majorOffset])

	rec = beacon.Record{
		ProximityUUID:    id.String(),
		Major:            binary.BigEndian.Uint16(profile[majorOffset:]),
		Minor:            binary.BigEndian.Uint16(profile[minorOffset:]),
		TxPower:          int8(profile[txPowerOffset]),
		RSSI:             f.RSSI,
		BluetoothAddress: f.Address,
		Vendor:           beacon.VendorApple,
	}

	rec.Accuracy = beacon.Accuracy(int(rec.TxPower), float64(rec.RSSI))
	rec.Proximity = beacon.Classify(rec.Accuracy)

	return rec, nil
}

// ParseAdvertisement decodes an advertisement reported by the BLE stack.
func ParseAdvertisement(a ble.Advertisement) (beacon.Record, error) {
	return Parse(FrameFromAdvertisement(a))
}

// FrameFromAdvertisement extracts the raw frame, RSSI and address of a.
func FrameFromAdvertisement(a ble.Advertisement) beacon.Frame {
	f := beacon.Frame{
		Data: ble.Frame(a),
		RSSI: a.RSSI(),
	}

	if addr := a.Addr(); addr != nil {
		f.Address = strings.ToLower(addr.String())
	}

	return f
}
