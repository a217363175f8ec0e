package metrics

import (
	"strconv"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/prometheus/client_golang/prometheus"
)

var beaconLabels = []string{"address", "uuid", "major", "minor"}

var (
	descRSSI = prometheus.NewDesc(
		"beacon_rssi_dbm",
		"Signal strength of the last advertisement received from the beacon.",
		beaconLabels,
		nil,
	)

	descTxPower = prometheus.NewDesc(
		"beacon_tx_power_dbm",
		"Calibrated transmit power at 1 meter advertised by the beacon.",
		beaconLabels,
		nil,
	)

	descAccuracy = prometheus.NewDesc(
		"beacon_accuracy_meters",
		"Estimated distance to the beacon. -1 when indeterminate.",
		beaconLabels,
		nil,
	)

	descProximity = prometheus.NewDesc(
		"beacon_proximity_info",
		"Proximity category of the beacon.",
		append(beaconLabels, "proximity"),
		nil,
	)

	descTracked = prometheus.NewDesc(
		"beacons_tracked",
		"Number of beacons seen since the scan started.",
		nil,
		nil,
	)
)

type SnapshotFunc func() []beacon.Record

type collector struct {
	SnapshotFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRSSI
	ch <- descTxPower
	ch <- descAccuracy
	ch <- descProximity
	ch <- descTracked
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	records := c.SnapshotFunc()

	ch <- prometheus.MustNewConstMetric(descTracked, prometheus.GaugeValue, float64(len(records)))

	for _, rec := range records {
		labels := []string{
			rec.BluetoothAddress,
			rec.ProximityUUID,
			strconv.Itoa(int(rec.Major)),
			strconv.Itoa(int(rec.Minor)),
		}

		ch <- prometheus.MustNewConstMetric(descTxPower, prometheus.GaugeValue,
			float64(rec.TxPower), labels...)

		// vendor records carry no signal information.
		if rec.Proximity == beacon.ProximityUnset {
			continue
		}

		ch <- prometheus.MustNewConstMetric(descRSSI, prometheus.GaugeValue,
			float64(rec.RSSI), labels...)
		ch <- prometheus.MustNewConstMetric(descAccuracy, prometheus.GaugeValue,
			rec.Accuracy, labels...)
		ch <- prometheus.MustNewConstMetric(descProximity, prometheus.GaugeValue, 1,
			append(labels, rec.Proximity.String())...)
	}
}

func RegisterCollector(f SnapshotFunc, reg prometheus.Registerer) {
	c := &collector{f}

	reg.MustRegister(c)
}
