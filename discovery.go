package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/mobel/go-ibeacon-exporter/collector"
	"github.com/mobel/go-ibeacon-exporter/collector/model"
)

func doBeaconDiscovery(cfg config) {
	log.Info().
		Dur("DurationSec", cfg.DiscoveryDuration).
		Msg("Starting in beacon discovery mode - collecting beacons...")

	// one advertisement per beacon is enough to list it.
	flags := ble.FlagFilterDuplicates

	if cfg.ActiveScan {
		flags |= ble.FlagScanTypeActive
	}

	handle, err := ble.Init(cfg.BluetoothDeviceId, flags, cfg.ScanParams)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
	}

	defer handle.Stop()

	ctx := ble.WrapContextWithSigHandler(
		context.WithTimeout(
			context.Background(),
			cfg.DiscoveryDuration,
		),
	)

	registry := beacon.NewRegistry()
	firstSeen := make(map[string]time.Time)

	coll := collector.New(registry, collector.Options{
		QueueSize:     cfg.QueueSize,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.Backoff,
		OnResult: func(res model.Result) {
			if !res.Decoded() {
				return
			}

			addr := res.Record.BluetoothAddress

			if _, ok := firstSeen[addr]; ok {
				return
			}

			firstSeen[addr] = time.Now()

			log.Debug().
				Str("Addr", addr).
				Stringer("Vendor", res.Record.Vendor).
				Stringer("Record", res.Record).
				Hex("Frame", res.Frame.Data).
				Msg("Received beacon advertisement")
		},
	})

	if err := coll.Run(ctx, handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to scan for beacons")
	}

	log.Info().Int("Found", registry.Count()).Msg("Finished beacon discovery")

	for _, rec := range registry.Snapshot() {
		if rec.IsSentinel() {
			log.Info().
				Str("Addr", rec.BluetoothAddress).
				Stringer("Vendor", rec.Vendor).
				Msg("Found proprietary beacon, identifiers unavailable")

			continue
		}

		log.Info().
			Str("Addr", rec.BluetoothAddress).
			Stringer("Vendor", rec.Vendor).
			Str("UUID", rec.ProximityUUID).
			Uint16("Major", rec.Major).
			Uint16("Minor", rec.Minor).
			Int("RSSI", rec.RSSI).
			Float64("Accuracy", rec.Accuracy).
			Stringer("Proximity", rec.Proximity).
			Msg("Found beacon")
	}
}
