package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mobel/go-ibeacon-exporter/beacon"
)

func hangups() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)

	return ch
}

// clearOnSignal forgets every tracked beacon each time sigs fires, so that beacons which left
// stop being exported. Returns once sigs is closed.
func clearOnSignal(registry *beacon.Registry, sigs <-chan os.Signal) {
	for sig := range sigs {
		log.Info().
			Stringer("Signal", sig).
			Int("Forgotten", registry.Count()).
			Msg("Clearing tracked beacons")

		registry.Clear()
	}
}
