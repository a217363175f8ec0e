package main

import (
	"flag"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/mobel/go-ibeacon-exporter/collector"
)

type config struct {
	Debug, Trace         bool
	BindAddress          string
	EnableMetamonitoring bool
	DiscoverBeacons      bool
	DiscoveryDuration    time.Duration
	BluetoothDeviceId    int
	ActiveScan           bool
	ScanParams           ble.ScanParams
	QueueSize            int
	MaxRetries           int
	Backoff              time.Duration
	Beacons              addressList
}

// addressList collects the repeated -beacon flag.
type addressList []net.HardwareAddr

func (l *addressList) String() string {
	addrs := make([]string, len(*l))

	for i, addr := range *l {
		addrs[i] = addr.String()
	}

	return strings.Join(addrs, ",")
}

func (l *addressList) Set(v string) error {
	for _, entry := range strings.Split(v, ",") {
		entry = strings.TrimSpace(entry)

		if entry == "" {
			continue
		}

		addr, err := net.ParseMAC(entry)
		if err != nil {
			return fmt.Errorf("invalid beacon address %q: %w", entry, err)
		}

		if len(addr) != 6 {
			return fmt.Errorf("invalid beacon address %q: must be a 6 byte MAC address", entry)
		}

		*l = append(*l, addr)
	}

	return nil
}

func ParseArgs() config {
	var cfg config

	flag.StringVar(&cfg.BindAddress, "bind", "localhost:9103", "Where the exporter will bind to")
	flag.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
	flag.BoolVar(&cfg.ActiveScan, "active-scan", false, "Request scan responses from beacons")
	flag.DurationVar(&cfg.ScanParams.Interval, "scan-interval", ble.DefaultScanParams.Interval,
		"How often the Bluetooth controller starts listening for advertisements")
	flag.DurationVar(&cfg.ScanParams.Window, "scan-window", ble.DefaultScanParams.Window,
		"How long the Bluetooth controller listens every scan interval")
	flag.BoolVar(&cfg.DiscoverBeacons, "discover", false, "Discover nearby beacons and quit")
	flag.DurationVar(&cfg.DiscoveryDuration, "discover-duration", 5*time.Second,
		"How long to scan for in discovery mode")
	flag.BoolVar(&cfg.EnableMetamonitoring, "metamonitoring", true, "Enable metamonitoring metrics")
	flag.IntVar(&cfg.QueueSize, "queue-size", collector.DefaultQueueSize,
		"Advertisements buffered for decoding before new ones are dropped")
	flag.IntVar(&cfg.MaxRetries, "max-retries", collector.DefaultMaxRetries,
		"Max number of times a failed scan is restarted, negative to never restart")
	flag.DurationVar(&cfg.Backoff, "backoff", collector.DefaultBackoffFactor,
		"Exponential backoff factor for scan restarts")
	flag.Var(&cfg.Beacons, "beacon",
		"MAC address of a beacon to track, may be repeated or comma separated. Tracks every beacon when unset.")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
	flag.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

	flag.Parse()

	return cfg
}
