package collector

import (
	"bytes"
	"context"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/beacon/ibeacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/rs/zerolog/log"
)

// enqueue hands a over to the decode worker. It runs on the BLE delivery path and never
// blocks: when the queue is full the advertisement is dropped.
func enqueue(ctx context.Context, a ble.Advertisement, frames chan<- beacon.Frame) {
	// the BLE lib could send an advertisement even after `Scan()` returns.
	select {
	case <-ctx.Done():
		return
	default:
	}

	f := ibeacon.FrameFromAdvertisement(a)

	// the advertisement buffer belongs to the BLE stack and may be reused after we return.
	f.Data = bytes.Clone(f.Data)

	select {
	case frames <- f:
	default:
		droppedCounter.Inc()

		log.Trace().
			Str("Address", f.Address).
			Msg("collector: decode queue full, dropping advertisement")
	}
}
