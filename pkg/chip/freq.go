package chip

import "math"

// Code is a frequency code as the chip stores it.
type Code struct {
	Fnum  int
	Block int
}

// QuantStep returns the frequency difference in Hz between two adjacent
// F-numbers at the given block.
func (k Kind) QuantStep(block int, clock float64) float64 {
	return math.Ldexp(clock, block) / k.divisor()
}

// DecodeFreq converts a frequency code back to Hz.
func (k Kind) DecodeFreq(c Code, clock float64) float64 {
	return float64(c.Fnum) * k.QuantStep(c.Block, clock)
}

// MaxFreq returns the highest frequency the chip can produce at clock.
func (k Kind) MaxFreq(clock float64) float64 {
	return k.DecodeFreq(Code{Fnum: k.MaxFnum(), Block: k.MaxBlock()}, clock)
}

// FreqToCode picks the smallest block whose rounded F-number fits, which
// gives the finest resolution available for hz. Non-positive and NaN
// frequencies map to the zero code; frequencies beyond MaxFreq clamp to the
// largest code.
func (k Kind) FreqToCode(hz, clock float64) Code {
	if !(hz > 0) || !(clock > 0) {
		return Code{}
	}
	maxFnum := float64(k.MaxFnum())
	for block := 0; block <= k.MaxBlock(); block++ {
		fnum := math.Round(hz / k.QuantStep(block, clock))
		if fnum <= maxFnum {
			return Code{Fnum: int(fnum), Block: block}
		}
	}
	return Code{Fnum: k.MaxFnum(), Block: k.MaxBlock()}
}

// clamp forces c into the register widths of k.
func (k Kind) clamp(c Code) Code {
	c.Fnum = max(0, min(k.MaxFnum(), c.Fnum))
	c.Block = max(0, min(k.MaxBlock(), c.Block))
	return c
}
