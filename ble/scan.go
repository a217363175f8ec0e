package ble

import (
	"context"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	advertisementsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ibeacon_exporter_ble_advertisements_total",
		Help: "Advertisements reported by the Bluetooth device.",
	})
	scansCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ibeacon_exporter_ble_scans_total",
		Help: "Scans started on the Bluetooth device.",
	})
)

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
	return ble.WithSigHandler(ctx, cancel)
}

// Perform an active or passive scan and pass every advertisement found to onAdvertisement.
// Repeated advertisements from the same device are included unless the handle was initialized
// with FlagFilterDuplicates. Runs until ctx is done.
//
// onAdvertisement runs on the HCI event loop and must not block.
func (h *Handle) ScanAll(ctx context.Context, onAdvertisement func(Advertisement)) error {
	scansCounter.Inc()

	err := h.dev.Scan(ctx, h.flags.reportDuplicates(), func(a Advertisement) {
		advertisementsCounter.Inc()
		onAdvertisement(a)
	})

	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return nil
}
