package chip

import "math"

// MagToTL converts a linear magnitude to a total level in [0, maxTL].
//
// The ratio mag/ref is taken to decibels, clamped to [minDB, 0] and mapped
// linearly so that 0 dB is TL 0 and minDB is maxTL. Non-positive or NaN
// magnitudes are silence and return maxTL. The mapping never increases TL
// when the magnitude increases.
func MagToTL(mag, ref, minDB float64, maxTL int) int {
	if maxTL <= 0 {
		return 0
	}
	if !(mag > 0) || !(ref > 0) {
		return maxTL
	}
	db := 20 * math.Log10(mag/ref)
	if math.IsNaN(db) {
		return maxTL
	}
	if !(minDB < 0) {
		if db >= 0 {
			return 0
		}
		return maxTL
	}
	db = max(minDB, min(0, db))
	tl := int(math.Round(db / minDB * float64(maxTL)))
	return max(0, min(maxTL, tl))
}

// TL maps a magnitude to this kind's total level range, with ref as the
// magnitude that plays at full volume.
func (k Kind) TL(mag, ref float64) int {
	return MagToTL(mag, ref, k.MinDB(), k.MaxTL())
}
