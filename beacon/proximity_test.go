package beacon_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mobel/go-ibeacon-exporter/beacon"
)

func TestAccuracy_IndeterminateWithoutSignal(t *testing.T) {
	for _, txPower := range []int{-100, -59, -1, 0, 4, 127} {
		assert.Equal(t, -1.0, beacon.Accuracy(txPower, 0), "txPower %d", txPower)
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		txPower int
		rssi    float64
		want    float64
	}{
		{"closer than calibration", -59, -50, math.Pow(50.0/59.0, 10)},
		{"at calibration distance", -59, -59, 0.89976 + 0.111},
		{"farther than calibration", -59, -80, 0.89976*math.Pow(80.0/59.0, 7.7095) + 0.111},
		{"weak beacon", -75, -90, 0.89976*math.Pow(90.0/75.0, 7.7095) + 0.111},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, beacon.Accuracy(tt.txPower, tt.rssi), 1e-9)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     beacon.Proximity
	}{
		{-1.0, beacon.ProximityUnknown},
		{-0.0001, beacon.ProximityUnknown},
		{math.Inf(-1), beacon.ProximityUnknown},
		{0, beacon.ProximityImmediate},
		{0.49, beacon.ProximityImmediate},
		{0.5, beacon.ProximityNear},
		{1.01076, beacon.ProximityNear},
		{4.0, beacon.ProximityNear},
		{4.01, beacon.ProximityFar},
		{math.Inf(1), beacon.ProximityFar},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, beacon.Classify(tt.accuracy), "Classify(%v)", tt.accuracy)
	}
}

func TestProximity_String(t *testing.T) {
	assert.Equal(t, "UNSET", beacon.ProximityUnset.String())
	assert.Equal(t, "UNKNOWN", beacon.ProximityUnknown.String())
	assert.Equal(t, "IMMEDIATE", beacon.ProximityImmediate.String())
	assert.Equal(t, "NEAR", beacon.ProximityNear.String())
	assert.Equal(t, "FAR", beacon.ProximityFar.String())
}
