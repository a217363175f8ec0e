package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/mobel/go-ibeacon-exporter/collector"
	"github.com/mobel/go-ibeacon-exporter/metrics"
	"github.com/mobel/go-ibeacon-exporter/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.DurationFieldUnit = time.Second
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	})

	cfg := ParseArgs()

	if cfg.Trace || os.Getenv("TRACE") != "" {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	} else if cfg.Debug || os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.DiscoverBeacons {
		doBeaconDiscovery(cfg)
		return
	}

	log.Info().
		Str("BindAddr", cfg.BindAddress).
		Array("Beacons", utils.ToZeroLogArray(cfg.Beacons)).
		Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
		Msg("Starting with the specified configuration")

	bleHandle := initBle(cfg)
	defer bleHandle.Stop()

	registry := beacon.NewRegistry()

	coll := collector.New(registry, collector.Options{
		QueueSize:     cfg.QueueSize,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.Backoff,
	})

	promRegistry := prometheus.NewRegistry()

	metrics.RegisterCollector(registry.Snapshot, promRegistry)

	if cfg.EnableMetamonitoring {
		ble.RegisterMetrics(promRegistry)
		collector.RegisterMetrics(promRegistry)
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	go clearOnSignal(registry, hangups())

	go func() {
		if err := coll.Run(context.Background(), bleHandle); err != nil {
			log.Fatal().Err(err).Msg("Beacon collector failed")
		}

		log.Fatal().Msg("Beacon collector stopped unexpectedly")
	}()

	log.Info().
		Str("ListenAddress", cfg.BindAddress).
		Msg("Starting Prometheus server")

	http.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	if err := http.ListenAndServe(cfg.BindAddress, nil); err != nil {
		log.Fatal().Err(err).Msg("Unable to bind on requested address")
	}
}

func initBle(cfg config) *ble.Handle {
	var bleFlags ble.Flags

	if cfg.ActiveScan {
		bleFlags |= ble.FlagScanTypeActive
	}

	if len(cfg.Beacons) > 0 {
		bleFlags |= ble.FlagEnableDeviceAllowList
	}

	bleHandle, err := ble.Init(cfg.BluetoothDeviceId, bleFlags, cfg.ScanParams)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
	}

	if len(cfg.Beacons) > 0 {
		if err := bleHandle.SetAllowListedAddresses(cfg.Beacons); err != nil {
			log.Error().Err(err).Msg("Failed to set beacon allow list")
		}
	}

	return bleHandle
}
