package beacon

import (
	"math"
	"strconv"
)

type Proximity uint8

const (
	// ProximityUnset is carried by vendor records, for which no estimate is computed.
	ProximityUnset Proximity = iota
	ProximityUnknown
	ProximityImmediate
	ProximityNear
	ProximityFar
)

func (p Proximity) String() string {
	switch p {
	case ProximityUnset:
		return "UNSET"
	case ProximityUnknown:
		return "UNKNOWN"
	case ProximityImmediate:
		return "IMMEDIATE"
	case ProximityNear:
		return "NEAR"
	case ProximityFar:
		return "FAR"
	default:
		panic("unknown proximity value: " + strconv.Itoa(int(p)))
	}
}

// Empirical constants of the reference iBeacon distance model.
const (
	accuracyCoefficient = 0.89976
	accuracyExponent    = 7.7095
	accuracyIntercept   = 0.111

	immediateThreshold = 0.5
	nearThreshold      = 4.0
)

// Accuracy estimates the distance in meters to a beacon calibrated at txPower (the RSSI
// expected at 1 meter). Returns -1 when rssi is 0, meaning the estimate is indeterminate.
func Accuracy(txPower int, rssi float64) float64 {
	if rssi == 0 {
		return -1.0
	}

	ratio := rssi / float64(txPower)

	if ratio < 1.0 {
		return math.Pow(ratio, 10)
	}

	return accuracyCoefficient*math.Pow(ratio, accuracyExponent) + accuracyIntercept
}

// Classify maps an accuracy estimate onto a proximity category. Any negative accuracy is
// UNKNOWN.
func Classify(accuracy float64) Proximity {
	switch {
	case accuracy < 0:
		return ProximityUnknown
	case accuracy < immediateThreshold:
		return ProximityImmediate
	case accuracy <= nearThreshold:
		return ProximityNear
	default:
		return ProximityFar
	}
}
