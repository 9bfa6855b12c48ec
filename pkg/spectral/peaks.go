package spectral

import (
	"cmp"
	"math"
	"slices"
)

// Peak is a spectral peak.
type Peak struct {
	Freq float64 `msgpack:"f" json:"freq"`
	Mag  float64 `msgpack:"m" json:"mag"`
}

// Peaks returns up to n strict local maxima of s at or above floor, sorted
// by descending magnitude with ties broken towards the lower frequency.
// n <= 0 means no limit. Silence yields no peaks.
func Peaks(s Spectrum, n int, floor float64) []Peak {
	m := s.Mags
	var peaks []Peak
	for k := 1; k+1 < len(m); k++ {
		if m[k] < floor || m[k] <= m[k-1] || m[k] <= m[k+1] {
			continue
		}
		offset, mag := interpolate(m[k-1], m[k], m[k+1])
		peaks = append(peaks, Peak{Freq: (float64(k) + offset) * s.BinHz, Mag: mag})
	}
	slices.SortStableFunc(peaks, func(a, b Peak) int {
		if c := cmp.Compare(b.Mag, a.Mag); c != 0 {
			return c
		}
		return cmp.Compare(a.Freq, b.Freq)
	})
	if n > 0 && len(peaks) > n {
		peaks = peaks[:n]
	}
	return peaks
}

// interpolate fits a parabola through the log magnitudes around a local
// maximum b and returns the vertex offset in bins and its height.
func interpolate(a, b, c float64) (offset, mag float64) {
	if a <= 0 || c <= 0 {
		return 0, b
	}
	la, lb, lc := math.Log(a), math.Log(b), math.Log(c)
	den := la - 2*lb + lc
	if den >= 0 {
		return 0, b
	}
	offset = max(-0.5, min(0.5, 0.5*(la-lc)/den))
	return offset, math.Exp(lb - 0.25*(la-lc)*offset)
}
