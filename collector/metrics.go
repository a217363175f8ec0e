package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decodedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ibeacon_exporter_frames_decoded_total",
		Help: "Advertisements decoded into a beacon record, by vendor marker.",
	}, []string{"vendor"})
	unrecognizedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ibeacon_exporter_frames_unrecognized_total",
		Help: "Advertisements that were not beacon frames or were truncated.",
	})
	droppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ibeacon_exporter_frames_dropped_total",
		Help: "Advertisements dropped because the decode queue was full.",
	})
	scanRestartsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ibeacon_exporter_scan_restarts_total",
		Help: "Scans restarted after a failure.",
	})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		decodedCounter,
		unrecognizedCounter,
		droppedCounter,
		scanRestartsCounter,
	)
}
