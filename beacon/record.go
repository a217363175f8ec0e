package beacon

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mobel/go-ibeacon-exporter/utils"
)

var (
	// ErrNotBeacon is returned for frames without any known beacon marker.
	ErrNotBeacon = errors.New("not a beacon advertisement")
	// ErrTruncatedFrame is returned for frames too short for the profile their marker announces.
	ErrTruncatedFrame = errors.New("truncated beacon advertisement")
)

// IsUnrecognized reports whether err means that a frame did not yield a record. Callers are
// expected to skip such frames silently.
func IsUnrecognized(err error) bool {
	return utils.ErrorIsAnyOf(err, ErrNotBeacon, ErrTruncatedFrame)
}

// SentinelUUID is the identifier used by vendor frames whose identifiers cannot be decoded.
const SentinelUUID = "00000000-0000-0000-0000-000000000000"

// SentinelTxPower is the calibrated tx power assigned to vendor frames.
const SentinelTxPower int8 = -55

type Vendor uint8

const (
	VendorApple Vendor = iota
	VendorEstimote
	VendorGimbal
)

func (v Vendor) String() string {
	switch v {
	case VendorApple:
		return "apple"
	case VendorEstimote:
		return "estimote"
	case VendorGimbal:
		return "gimbal"
	default:
		panic("unknown beacon vendor: " + strconv.Itoa(int(v)))
	}
}

// Frame is a single raw advertisement as delivered by the scanner. Data is only borrowed for
// the duration of a parse call.
type Frame struct {
	Data    []byte
	RSSI    int
	Address string
}

func (f Frame) String() string {
	return fmt.Sprintf("frame[addr=%q, rssi=%d, data=%x]", f.Address, f.RSSI, f.Data)
}

// Record is a decoded proximity beacon.
type Record struct {
	ProximityUUID string
	Major         uint16
	Minor         uint16
	TxPower       int8
	RSSI          int

	// Accuracy is the distance estimate Proximity was derived from. Zero on vendor records.
	Accuracy  float64
	Proximity Proximity

	// BluetoothAddress is empty when the scanner did not report one.
	BluetoothAddress string

	Vendor Vendor
}

// VendorRecord returns the degraded record used for recognized frames whose identifiers
// cannot be read.
func VendorRecord(v Vendor, addr string) Record {
	return Record{
		ProximityUUID:    SentinelUUID,
		Major:            0,
		Minor:            0,
		TxPower:          SentinelTxPower,
		BluetoothAddress: addr,
		Vendor:           v,
	}
}

// IsSentinel reports whether r carries the all-zero vendor identifier.
func (r Record) IsSentinel() bool {
	return r.ProximityUUID == SentinelUUID
}

func (r Record) String() string {
	return fmt.Sprintf("%s major:%d minor:%d rssi:%d > %v", r.ProximityUUID, r.Major, r.Minor,
		r.RSSI, r.Proximity)
}
