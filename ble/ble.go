package ble

import (
	"fmt"
	"net"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
	"github.com/mobel/go-ibeacon-exporter/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Advertisement = ble.Advertisement

type Handle struct {
	dev   *linux.Device
	flags Flags
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		advertisementsCounter,
		scansCounter,
	)
}

func Init(deviceId int, flags Flags, params ScanParams) (*Handle, error) {
	scanParams, err := params.hciParameters(flags)

	if err != nil {
		return nil, err
	}

	log.Debug().
		Stringer("Flags", flags).
		Stringer("ScanParams", params).
		Int("DeviceID", deviceId).
		Msg("Initializing Bluetooth device")

	dev, err := linux.NewDevice(
		ble.OptDeviceID(deviceId),
		ble.OptScanParams(scanParams),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
	}

	ble.SetDefaultDevice(dev)

	return &Handle{dev: dev, flags: flags}, nil
}

// Restrict scans to the given addresses. Only effective when the handle was initialized with
// FlagEnableDeviceAllowList.
func (h *Handle) SetAllowListedAddresses(a []net.HardwareAddr) error {
	log.Debug().
		Array("DeviceAddresses", utils.ToZeroLogArray(a)).
		Msg("Allow-listing the requested Bluetooth devices")

	var res cmd.LEClearWhiteListRP

	err := h.dev.HCI.Send(&cmd.LEClearWhiteList{}, &res)

	if err != nil {
		return fmt.Errorf("failed to clear allow-list: %w", err)
	}

	if res.Status != 0 {
		return fmt.Errorf("failed to clear allow-list: got status: %v", res.Status)
	}

	for _, addr := range a {
		if len(addr) != 6 {
			return fmt.Errorf("cannot allow-list %q: not a 6 byte device address", addr.String())
		}

		var address [6]byte

		// HCI wants the address little-endian.
		copy(address[:], utils.Reverse([]byte(addr)))

		var res cmd.LEAddDeviceToWhiteListRP

		err := h.dev.HCI.Send(&cmd.LEAddDeviceToWhiteList{
			AddressType: 0x00, // public
			Address:     address,
		}, &res)

		if err != nil {
			return fmt.Errorf("failed to allow-list device %q: %w", addr.String(), err)
		}

		if res.Status != 0 {
			return fmt.Errorf("failed to allow-list device %q: got status: %v", addr.String(), res.Status)
		}
	}

	return nil
}

func (h *Handle) Stop() {
	h.dev.Stop()
}
