package ble

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-ble/ble/linux/hci/cmd"
)

type Flags int

const (
	// Request scan responses from beacons instead of only listening.
	FlagScanTypeActive Flags = 1 << iota
	// Only report devices added with `SetAllowListedAddresses()`.
	FlagEnableDeviceAllowList
	// Let the controller report only the first advertisement of each device. The RSSI of a
	// beacon is then never refreshed, so this is only useful for discovery.
	FlagFilterDuplicates
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagScanTypeActive, "active scan"},
	{FlagEnableDeviceAllowList, "device allow-list"},
	{FlagFilterDuplicates, "filter duplicates"},
}

func (f Flags) String() string {
	var names []string

	for _, n := range flagNames {
		if f&n.flag == n.flag {
			names = append(names, n.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}

func (f Flags) reportDuplicates() bool {
	return f&FlagFilterDuplicates == 0
}

// HCI scan timings are expressed in units of 0.625ms.
const (
	scanUnit     = 625 * time.Microsecond
	minScanUnits = 0x0004
	maxScanUnits = 0x4000
)

// ScanParams is the duty cycle of the controller: it listens for Window every Interval.
type ScanParams struct {
	Interval time.Duration
	Window   time.Duration
}

// DefaultScanParams listens continuously. Beacons advertise roughly every 100ms and any gap
// in the window loses readings.
var DefaultScanParams = ScanParams{
	Interval: 10 * time.Millisecond,
	Window:   10 * time.Millisecond,
}

func (p ScanParams) String() string {
	return fmt.Sprintf("window %v every %v", p.Window, p.Interval)
}

func scanUnits(d time.Duration) (uint16, error) {
	n := d / scanUnit

	if n < minScanUnits || n > maxScanUnits {
		return 0, fmt.Errorf("%v is outside of [%v, %v]", d, minScanUnits*scanUnit,
			maxScanUnits*scanUnit)
	}

	return uint16(n), nil
}

// hciParameters builds the LE Set Scan Parameters command for p and flags.
func (p ScanParams) hciParameters(flags Flags) (params cmd.LESetScanParameters, err error) {
	interval, err := scanUnits(p.Interval)

	if err != nil {
		return params, fmt.Errorf("invalid scan interval: %w", err)
	}

	window, err := scanUnits(p.Window)

	if err != nil {
		return params, fmt.Errorf("invalid scan window: %w", err)
	}

	if window > interval {
		return params, fmt.Errorf("scan window %v is longer than the scan interval %v", p.Window,
			p.Interval)
	}

	params = cmd.LESetScanParameters{
		LEScanType:           0x00, // passive
		LEScanInterval:       interval,
		LEScanWindow:         window,
		OwnAddressType:       0x00, // public
		ScanningFilterPolicy: 0x00, // accept all
	}

	if flags&FlagScanTypeActive == FlagScanTypeActive {
		params.LEScanType = 0x01
	}

	if flags&FlagEnableDeviceAllowList == FlagEnableDeviceAllowList {
		params.ScanningFilterPolicy = 0x01
	}

	return params, nil
}
