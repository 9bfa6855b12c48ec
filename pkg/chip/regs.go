package chip

// Write is one register write on a single chip instance. Port selects the
// register bank; only OPL3 has a second bank.
type Write struct {
	Port uint8
	Addr uint8
	Data uint8
}

// OPN registers.
const (
	opnSSGMixer = 0x07
	opnKeyOn    = 0x28
	opnDTML     = 0x30
	opnTL       = 0x40
	opnKSAR     = 0x50
	opnDR       = 0x60
	opnSR       = 0x70
	opnSLRR     = 0x80
	opnFnumLo   = 0xA0
	opnFnumHi   = 0xA4
	opnFBAlg    = 0xB0
	opnLastReg  = 0xB6
)

// OPL3 registers.
const (
	oplTest      = 0x01
	oplNoteSel   = 0x08
	oplConnSel   = 0x04
	oplNew       = 0x05
	oplAMMult    = 0x20
	oplKSLTL     = 0x40
	oplARDR      = 0x60
	oplSLRR      = 0x80
	oplFnumLo    = 0xA0
	oplKeyBlock  = 0xB0
	oplRhythm    = 0xBD
	oplFBConn    = 0xC0
	oplWave      = 0xE0
	oplLastReg   = 0xF5
	oplKeyBit    = 0x20
	oplStereoOut = 0x30
)

// opnSlots are the register offsets of operators 1, 3, 2 and 4.
var opnSlots = [4]uint8{0x00, 0x04, 0x08, 0x0C}

// oplModSlots holds the modulator operator offset of each channel within a
// bank. The carrier sits three slots above its modulator.
var oplModSlots = [9]uint8{0x00, 0x01, 0x02, 0x08, 0x09, 0x0A, 0x10, 0x11, 0x12}

// ValidRegister reports whether (port, addr) is in the register space of k.
func (k Kind) ValidRegister(port, addr uint8) bool {
	switch k {
	case OPL3:
		return port <= 1 && addr <= oplLastReg
	case OPN:
		return port == 0 && addr <= opnLastReg
	}
	return false
}

// InitWrites returns the chip-global writes issued once per instance before
// any voice is programmed.
func (k Kind) InitWrites() []Write {
	switch k {
	case OPL3:
		return []Write{
			{Port: 1, Addr: oplNew, Data: 0x01},
			{Port: 1, Addr: oplConnSel, Data: 0x00},
			{Port: 0, Addr: oplTest, Data: 0x00},
			{Port: 0, Addr: oplNoteSel, Data: 0x00},
			{Port: 0, Addr: oplRhythm, Data: 0x00},
		}
	case OPN:
		// Tone and noise off on every SSG channel.
		return []Write{{Addr: opnSSGMixer, Data: 0x3F}}
	}
	panic("chip: invalid kind")
}

// VoiceSetup programs channel ch as a single sine carrier at full
// attenuation. The voice stays silent until NoteOn.
func (k Kind) VoiceSetup(ch int) []Write {
	switch k {
	case OPL3:
		port, c := oplChannel(ch)
		mod := oplModSlots[c]
		car := mod + 3
		var ws []Write
		for _, op := range [2]uint8{mod, car} {
			ws = append(ws,
				Write{Port: port, Addr: oplAMMult + op, Data: 0x21},
				Write{Port: port, Addr: oplKSLTL + op, Data: uint8(k.MaxTL())},
				Write{Port: port, Addr: oplARDR + op, Data: 0xF0},
				Write{Port: port, Addr: oplSLRR + op, Data: 0x0F},
				Write{Port: port, Addr: oplWave + op, Data: 0x00},
			)
		}
		return append(ws, Write{Port: port, Addr: oplFBConn + c, Data: oplStereoOut})
	case OPN:
		c := uint8(ch)
		var ws []Write
		for _, op := range opnSlots {
			ws = append(ws,
				Write{Addr: opnDTML + op + c, Data: 0x01},
				Write{Addr: opnTL + op + c, Data: uint8(k.MaxTL())},
				Write{Addr: opnKSAR + op + c, Data: 0x1F},
				Write{Addr: opnDR + op + c, Data: 0x00},
				Write{Addr: opnSR + op + c, Data: 0x00},
				Write{Addr: opnSLRR + op + c, Data: 0x0F},
			)
		}
		// Algorithm 7, no feedback.
		return append(ws, Write{Addr: opnFBAlg + c, Data: 0x07})
	}
	panic("chip: invalid kind")
}

// SetTL sets the carrier attenuation of channel ch. tl is clamped.
func (k Kind) SetTL(ch, tl int) []Write {
	tl = max(0, min(k.MaxTL(), tl))
	switch k {
	case OPL3:
		port, c := oplChannel(ch)
		return []Write{{Port: port, Addr: oplKSLTL + oplModSlots[c] + 3, Data: uint8(tl)}}
	case OPN:
		return []Write{{Addr: opnTL + opnSlots[0] + uint8(ch), Data: uint8(tl)}}
	}
	panic("chip: invalid kind")
}

// NoteOn tunes channel ch to c and keys it on.
func (k Kind) NoteOn(ch int, c Code) []Write {
	switch k {
	case OPL3:
		return k.oplFreq(ch, c, true)
	case OPN:
		return append(k.opnFreq(ch, c), Write{Addr: opnKeyOn, Data: 0x10 | uint8(ch)})
	}
	panic("chip: invalid kind")
}

// Retune changes the frequency of a sounding channel without restarting
// its envelope.
func (k Kind) Retune(ch int, c Code) []Write {
	switch k {
	case OPL3:
		return k.oplFreq(ch, c, true)
	case OPN:
		return k.opnFreq(ch, c)
	}
	panic("chip: invalid kind")
}

// NoteOff releases channel ch. c is the code the channel currently holds;
// OPL3 shares the key bit with the frequency register.
func (k Kind) NoteOff(ch int, c Code) []Write {
	switch k {
	case OPL3:
		return k.oplFreq(ch, c, false)[1:]
	case OPN:
		return []Write{{Addr: opnKeyOn, Data: uint8(ch)}}
	}
	panic("chip: invalid kind")
}

// IsKeyOn reports whether w keys a voice on.
func (k Kind) IsKeyOn(w Write) bool {
	switch k {
	case OPL3:
		return w.Addr >= oplKeyBlock && w.Addr < oplKeyBlock+9 && w.Data&oplKeyBit != 0
	case OPN:
		return w.Addr == opnKeyOn && w.Data&0xF0 != 0
	}
	return false
}

// AttenuationOf returns the TL carried by w if w is a total level write.
func (k Kind) AttenuationOf(w Write) (int, bool) {
	switch k {
	case OPL3:
		if w.Addr >= oplKSLTL && w.Addr <= oplKSLTL+0x15 {
			return int(w.Data & 0x3F), true
		}
	case OPN:
		if w.Addr >= opnTL && w.Addr <= opnTL+0x0E {
			return int(w.Data & 0x7F), true
		}
	}
	return 0, false
}

// Registers mirrors the register file of one chip instance.
type Registers [2][256]uint8

// Apply records w in the mirror.
func (r *Registers) Apply(w Write) {
	r[w.Port&1][w.Addr] = w.Data
}

// CodeOf returns the frequency code channel ch holds in r.
func (k Kind) CodeOf(r *Registers, ch int) Code {
	switch k {
	case OPL3:
		port, n := oplChannel(ch)
		hi, lo := r[port][oplKeyBlock+n], r[port][oplFnumLo+n]
		return Code{Fnum: int(hi&0x03)<<8 | int(lo), Block: int(hi>>2) & 0x07}
	case OPN:
		n := uint8(ch)
		hi, lo := r[0][opnFnumHi+n], r[0][opnFnumLo+n]
		return Code{Fnum: int(hi&0x07)<<8 | int(lo), Block: int(hi>>3) & 0x07}
	}
	panic("chip: invalid kind")
}

// KeyOnChannel returns the channel keyed on by w, or -1.
func (k Kind) KeyOnChannel(w Write) int {
	if !k.IsKeyOn(w) {
		return -1
	}
	switch k {
	case OPL3:
		return int(w.Addr-oplKeyBlock) + 9*int(w.Port)
	case OPN:
		return int(w.Data & 0x03)
	}
	return -1
}

// oplFreq returns the A0/B0 pair for ch. The B0 write also carries the key
// bit, so it is always last.
func (k Kind) oplFreq(ch int, c Code, key bool) []Write {
	c = k.clamp(c)
	port, n := oplChannel(ch)
	hi := uint8(c.Block)<<2 | uint8(c.Fnum>>8)&0x03
	if key {
		hi |= oplKeyBit
	}
	return []Write{
		{Port: port, Addr: oplFnumLo + n, Data: uint8(c.Fnum)},
		{Port: port, Addr: oplKeyBlock + n, Data: hi},
	}
}

// opnFreq returns the A4/A0 pair for ch. The high byte is latched and only
// takes effect on the low byte write, so it goes first.
func (k Kind) opnFreq(ch int, c Code) []Write {
	c = k.clamp(c)
	n := uint8(ch)
	return []Write{
		{Addr: opnFnumHi + n, Data: uint8(c.Block)<<3 | uint8(c.Fnum>>8)&0x07},
		{Addr: opnFnumLo + n, Data: uint8(c.Fnum)},
	}
}

func oplChannel(ch int) (port, c uint8) {
	return uint8(ch / 9), uint8(ch % 9)
}
