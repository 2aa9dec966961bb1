package raymarch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// IntersectBox clips a ray against the axis-aligned box [-h, h] with the
// slab test. It returns the entry and exit parameters and whether the exit
// lies strictly beyond max(tmin, 0). rd need not be normalized for the
// test itself, but t is measured in units of |rd|.
func IntersectBox(ro, rd, h r3.Vec) (tmin, tmax float64, ok bool) {
	tmin, tmax = math.Inf(-1), math.Inf(1)

	for _, a := range [3]struct{ o, d, h float64 }{
		{ro.X, rd.X, h.X},
		{ro.Y, rd.Y, h.Y},
		{ro.Z, rd.Z, h.Z},
	} {
		if a.d == 0 {
			// parallel to this slab: either always inside it or never
			if a.o < -a.h || a.o > a.h {
				return tmin, tmax, false
			}
			continue
		}
		t0 := (-a.h - a.o) / a.d
		t1 := (a.h - a.o) / a.d
		tmin = math.Max(tmin, math.Min(t0, t1))
		tmax = math.Min(tmax, math.Max(t0, t1))
	}
	return tmin, tmax, tmax > math.Max(tmin, 0)
}
