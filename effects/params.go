package effects

import (
	"sync/atomic"

	"github.com/eyebrain/Dream/util"
)

type Kind int

const (
	Ladder Kind = iota
	Soap
	Decimator
	Wavefolder
	Chorus
	NumSlots
)

var kindNames = [NumSlots]string{"Ladder Filter", "Soap Filter", "Decimator", "Wavefolder", "Chorus"}

func (k Kind) String() string {
	if k < 0 || k >= NumSlots {
		return "Unknown"
	}
	return kindNames[k]
}

// WetDry is the parameter index every slot crossfades with.
const WetDry = 3

// Params is a plain copy of one slot's settings.
type Params struct {
	P      [4]float32 // normalized [0,1]
	Locked [4]bool
	// 1-16, 0 = off
	MidiChannel int
	// audio input 1-3
	InputChannel int
	Enabled      bool
}

// DefaultParams are the factory settings: each slot listens on MIDI
// channel slot+2, reads input 1, and only the ladder filter is on.
func DefaultParams() [NumSlots]Params {
	var out [NumSlots]Params
	p := [NumSlots][4]float32{
		Ladder:     {0.3, 0.2, 0.1, 0.5},
		Soap:       {0.3, 0.2, 0.1, 0.5},
		Decimator:  {0.1, 0.1, 0, 0.5},
		Wavefolder: {0.3, 0.5, 0, 0.5},
		Chorus:     {0.3, 0.2, 0, 0.5},
	}
	for i := range out {
		out[i] = Params{
			P:            p[i],
			MidiChannel:  i + 2,
			InputChannel: 1,
			Enabled:      i == int(Ladder),
		}
	}
	return out
}

// slot holds one effect's settings as independent atomics. gen moves on
// every write so the audio side knows when to recompute coefficients.
type slot struct {
	p       [4]util.Float32
	locked  [4]atomic.Bool
	midiCh  atomic.Int32
	inputCh atomic.Int32
	enabled atomic.Bool
	gen     atomic.Uint32
}

// Bank is the shared parameter store for all five slots. Writers are the
// control loop and MIDI handling, the reader is the audio callback.
type Bank struct {
	slots [NumSlots]slot
}

func NewBank(p [NumSlots]Params) *Bank {
	b := &Bank{}
	b.SetAll(p)
	return b
}

// unit clamps v to [0,1], NaN becomes 0
func unit(v float32) float32 {
	if v != v {
		return 0
	}
	return util.Clamp01(v)
}

func valid(k Kind) bool { return k >= 0 && k < NumSlots }

func (b *Bank) Get(k Kind) Params {
	if !valid(k) {
		return Params{}
	}
	s := &b.slots[k]
	var p Params
	for i := range p.P {
		p.P[i] = s.p[i].Load()
		p.Locked[i] = s.locked[i].Load()
	}
	p.MidiChannel = int(s.midiCh.Load())
	p.InputChannel = int(s.inputCh.Load())
	p.Enabled = s.enabled.Load()
	return p
}

func (b *Bank) All() [NumSlots]Params {
	var out [NumSlots]Params
	for i := range out {
		out[i] = b.Get(Kind(i))
	}
	return out
}

func (b *Bank) Set(k Kind, p Params) {
	if !valid(k) {
		return
	}
	s := &b.slots[k]
	for i := range p.P {
		s.p[i].Store(unit(p.P[i]))
		s.locked[i].Store(p.Locked[i])
	}
	s.midiCh.Store(int32(util.Clamp(p.MidiChannel, 0, 16)))
	s.inputCh.Store(int32(util.Clamp(p.InputChannel, 1, 3)))
	s.enabled.Store(p.Enabled)
	s.gen.Add(1)
}

func (b *Bank) SetAll(p [NumSlots]Params) {
	for i := range p {
		b.Set(Kind(i), p[i])
	}
}

// SetParam stores parameter i (0-3) of slot k, clamped to [0,1].
func (b *Bank) SetParam(k Kind, i int, v float32) {
	if !valid(k) || i < 0 || i > 3 {
		return
	}
	b.slots[k].p[i].Store(unit(v))
	b.slots[k].gen.Add(1)
}

func (b *Bank) Param(k Kind, i int) float32 {
	if !valid(k) || i < 0 || i > 3 {
		return 0
	}
	return b.slots[k].p[i].Load()
}

func (b *Bank) SetLocked(k Kind, i int, locked bool) {
	if !valid(k) || i < 0 || i > 3 {
		return
	}
	b.slots[k].locked[i].Store(locked)
}

func (b *Bank) SetEnabled(k Kind, on bool) {
	if valid(k) {
		b.slots[k].enabled.Store(on)
	}
}

func (b *Bank) Enabled(k Kind) bool {
	return valid(k) && b.slots[k].enabled.Load()
}

func (b *Bank) SetInputChannel(k Kind, ch int) {
	if valid(k) {
		b.slots[k].inputCh.Store(int32(util.Clamp(ch, 1, 3)))
	}
}

func (b *Bank) InputChannel(k Kind) int {
	if !valid(k) {
		return 1
	}
	return int(b.slots[k].inputCh.Load())
}

func (b *Bank) SetMidiChannel(k Kind, ch int) {
	if valid(k) {
		b.slots[k].midiCh.Store(int32(util.Clamp(ch, 0, 16)))
	}
}

func (b *Bank) MidiChannel(k Kind) int {
	if !valid(k) {
		return 0
	}
	return int(b.slots[k].midiCh.Load())
}

func (b *Bank) generation(k Kind) uint32 {
	return b.slots[k].gen.Load()
}
