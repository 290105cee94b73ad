package domain

import "math"

// GScale is a NOAA geomagnetic storm scale label, "G0" (none) to "G5" (extreme).
type GScale string

const (
	G0 GScale = "G0"
	G1 GScale = "G1"
	G2 GScale = "G2"
	G3 GScale = "G3"
	G4 GScale = "G4"
	G5 GScale = "G5"
)

// StormKpThreshold is the Kp value at and above which a reading counts as storm
// activity (G1 or higher).
const StormKpThreshold = 5.0

// KpToGScale maps a Kp value to its G-scale band. Bounds are inclusive and the
// highest matching band wins. NaN maps to G0.
func KpToGScale(kp float64) GScale {
	switch {
	case math.IsNaN(kp):
		return G0
	case kp >= 9:
		return G5
	case kp >= 8:
		return G4
	case kp >= 7:
		return G3
	case kp >= 6:
		return G2
	case kp >= StormKpThreshold:
		return G1
	default:
		return G0
	}
}

// ClassifyValue classifies a loosely typed Kp value. Anything ParseNumeric
// cannot read is G0.
func ClassifyValue(raw any) GScale {
	kp, ok := ParseNumeric(raw)
	if !ok {
		return G0
	}
	return KpToGScale(kp)
}

// IsStorm reports whether kp reaches StormKpThreshold.
func IsStorm(kp float64) bool {
	return kp >= StormKpThreshold
}
