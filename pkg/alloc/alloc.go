package alloc

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/spectral"
)

// ErrNoVoices is returned when the configuration provides no voices.
var ErrNoVoices = errors.New("alloc: no voices configured")

// Voice is one synthesis slot of an instance.
type Voice struct {
	Active bool
	// HasFreq is false until the voice has played a note.
	HasFreq bool
	// Freq is the unquantized frequency of the current or last note.
	Freq float64
	// Mag is the unquantized magnitude of the current or last note.
	Mag  float64
	Code chip.Code
	TL   int
	// LastWindow is the last window the voice was assigned in, or -1.
	LastWindow int
}

// Instance is one configured chip with its voice pool.
type Instance struct {
	Kind chip.Kind
	// Slot numbers instances of the same kind from 0.
	Slot   int
	Clock  float64
	Voices []Voice
}

// Write is a register write addressed to an instance by index.
type Write struct {
	Instance int
	chip.Write
}

// Assignment records which voice plays a peak in a window.
type Assignment struct {
	Instance int
	Voice    int
	// ID numbers voices across all instances.
	ID   int
	Freq float64
	Mag  float64
	Code chip.Code
	TL   int
	// KeyOn is set when the voice was (re)triggered in this window.
	KeyOn bool
}

// Step is the outcome of one window.
type Step struct {
	Window      int
	Writes      []Write
	Assignments []Assignment
	KeyOns      int
	KeyOffs     int
	Dropped     int
}

// Options tunes an Allocator.
type Options struct {
	// Reference is the magnitude mapped to TL 0. Zero means 1.
	Reference float64
	// Tolerance is the largest distance in Hz over which a peak may keep an
	// active voice. A voice always matches within its own quantization
	// step.
	Tolerance float64
}

// Allocator maps peaks onto the voices of a set of chip instances.
type Allocator struct {
	instances []Instance
	ref       float64
	tolerance float64
	window    int
	voices    int
}

type ref struct{ inst, voice int }

// New builds the instance pool described by specs, in order.
func New(specs []chip.Spec, opts Options) (*Allocator, error) {
	a := &Allocator{
		ref:       opts.Reference,
		tolerance: max(0, opts.Tolerance),
	}
	if !(a.ref > 0) {
		a.ref = 1
	}
	slots := make(map[chip.Kind]int)
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		for range s.Count {
			voices := make([]Voice, s.Voices)
			for i := range voices {
				voices[i] = Voice{TL: s.Kind.MaxTL(), LastWindow: -1}
			}
			a.instances = append(a.instances, Instance{
				Kind:   s.Kind,
				Slot:   slots[s.Kind],
				Clock:  float64(s.ClockHz()),
				Voices: voices,
			})
			slots[s.Kind]++
			a.voices += s.Voices
		}
	}
	if a.voices == 0 {
		return nil, ErrNoVoices
	}
	return a, nil
}

// Instances returns the instance pool. The result must not be modified.
func (a *Allocator) Instances() []Instance {
	return a.instances
}

// VoiceCount returns the number of voices across all instances.
func (a *Allocator) VoiceCount() int {
	return a.voices
}

// Setup returns the writes that initialize every instance and leave all
// voices silent.
func (a *Allocator) Setup() []Write {
	var ws []Write
	for i, inst := range a.instances {
		ws = appendWrites(ws, i, inst.Kind.InitWrites())
		for ch := range inst.Voices {
			ws = appendWrites(ws, i, inst.Kind.VoiceSetup(ch))
		}
	}
	return ws
}

// Step assigns the peaks of the next window, which must be sorted by
// descending magnitude.
func (a *Allocator) Step(peaks []spectral.Peak) Step {
	st := Step{Window: a.window}
	a.window++
	if len(peaks) > a.voices {
		st.Dropped = len(peaks) - a.voices
		peaks = peaks[:a.voices]
	}

	claims := make(map[ref]int, len(peaks))
	matched := make([]bool, len(peaks))
	for pi, p := range peaks {
		if r, ok := a.nearest(p, claims); ok {
			claims[r] = pi
			matched[pi] = true
		}
	}
	for pi, p := range peaks {
		if matched[pi] {
			continue
		}
		r := a.free(p, claims)
		claims[r] = pi
	}

	id := 0
	for ii := range a.instances {
		inst := &a.instances[ii]
		for vi := range inst.Voices {
			pi, ok := claims[ref{ii, vi}]
			if ok {
				st.Assignments = append(st.Assignments, a.assign(&st, ii, vi, id, peaks[pi], matched[pi]))
			} else if inst.Voices[vi].Active {
				a.release(&st, ii, vi)
			}
			id++
		}
	}
	return st
}

// Release keys off every active voice.
func (a *Allocator) Release() Step {
	st := Step{Window: a.window}
	for ii := range a.instances {
		for vi := range a.instances[ii].Voices {
			if a.instances[ii].Voices[vi].Active {
				a.release(&st, ii, vi)
			}
		}
	}
	return st
}

// nearest finds the closest unclaimed active voice within tolerance.
func (a *Allocator) nearest(p spectral.Peak, claims map[ref]int) (ref, bool) {
	best, found := ref{}, false
	bestDist := math.Inf(1)
	for ii, inst := range a.instances {
		for vi, v := range inst.Voices {
			if !v.Active || !v.HasFreq {
				continue
			}
			if _, taken := claims[ref{ii, vi}]; taken {
				continue
			}
			d := math.Abs(v.Freq - p.Freq)
			tol := max(a.tolerance, inst.Kind.QuantStep(v.Code.Block, inst.Clock))
			if d <= tol && d < bestDist {
				best, bestDist, found = ref{ii, vi}, d, true
			}
		}
	}
	return best, found
}

// free picks a voice for an unmatched peak. The caller guarantees that an
// unclaimed voice exists.
func (a *Allocator) free(p spectral.Peak, claims map[ref]int) ref {
	passes := []struct {
		idle, reach bool
	}{
		{idle: true, reach: true},
		{idle: true},
		{reach: true},
		{},
	}
	for _, pass := range passes {
		for ii, inst := range a.instances {
			if pass.reach && p.Freq > inst.Kind.MaxFreq(inst.Clock) {
				continue
			}
			for vi, v := range inst.Voices {
				if _, taken := claims[ref{ii, vi}]; taken {
					continue
				}
				if pass.idle && v.Active {
					continue
				}
				return ref{ii, vi}
			}
		}
	}
	panic("alloc: no free voice")
}

func (a *Allocator) assign(st *Step, ii, vi, id int, p spectral.Peak, matched bool) Assignment {
	inst := &a.instances[ii]
	v := &inst.Voices[vi]
	k := inst.Kind
	code := k.FreqToCode(p.Freq, inst.Clock)
	tl := k.TL(p.Mag, a.ref)

	keyOn := !matched
	if keyOn && v.Active {
		// Taking over a voice that was playing another note.
		st.Writes = appendWrites(st.Writes, ii, k.NoteOff(vi, v.Code))
		st.KeyOffs++
	}
	if tl != v.TL {
		st.Writes = appendWrites(st.Writes, ii, k.SetTL(vi, tl))
	}
	switch {
	case keyOn:
		st.Writes = appendWrites(st.Writes, ii, k.NoteOn(vi, code))
		st.KeyOns++
	case code != v.Code:
		st.Writes = appendWrites(st.Writes, ii, k.Retune(vi, code))
	}

	*v = Voice{
		Active:     true,
		HasFreq:    true,
		Freq:       p.Freq,
		Mag:        p.Mag,
		Code:       code,
		TL:         tl,
		LastWindow: st.Window,
	}
	return Assignment{
		Instance: ii,
		Voice:    vi,
		ID:       id,
		Freq:     p.Freq,
		Mag:      p.Mag,
		Code:     code,
		TL:       tl,
		KeyOn:    keyOn,
	}
}

func (a *Allocator) release(st *Step, ii, vi int) {
	inst := &a.instances[ii]
	v := &inst.Voices[vi]
	st.Writes = appendWrites(st.Writes, ii, inst.Kind.NoteOff(vi, v.Code))
	if v.TL != inst.Kind.MaxTL() {
		st.Writes = appendWrites(st.Writes, ii, inst.Kind.SetTL(vi, inst.Kind.MaxTL()))
		v.TL = inst.Kind.MaxTL()
	}
	v.Active = false
	st.KeyOffs++
}

func appendWrites(dst []Write, inst int, ws []chip.Write) []Write {
	for _, w := range ws {
		dst = append(dst, Write{Instance: inst, Write: w})
	}
	return dst
}

// String describes the pool, e.g. "ymf262#0x18 ym2203#0x3 ym2203#1x3".
func (a *Allocator) String() string {
	s := ""
	for i, inst := range a.instances {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s#%dx%d", inst.Kind, inst.Slot, len(inst.Voices))
	}
	return s
}
