package raymarch

import "math"

// windowEpsilon guards a zero-width log window.
const windowEpsilon = 1e-5

// Transfer maps a raw density onto [0,1] through a log10 window. Empty
// samples (<= 0) map to 0.
func Transfer(sRaw, logMin, logMax float64) float64 {
	if !(sRaw > 0) {
		return 0
	}
	s := (math.Log10(sRaw) - logMin) / math.Max(logMax-logMin, windowEpsilon)
	return math.Max(0, math.Min(1, s))
}
