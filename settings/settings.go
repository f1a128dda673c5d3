// Package settings holds the persisted user configuration: one fixed-layout
// little-endian record guarded by a magic number and a version.
package settings

import (
	"strings"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/scale"
)

const (
	Magic   uint32 = 0x4752414E // "GRAN"
	Version uint32 = 2
)

type HoldMode int32

const (
	HoldOff HoldMode = iota
	HoldCV1
	HoldCV2
	HoldBoth
)

var holdNames = [...]string{"Off", "CV1", "CV2", "Both"}

func (h HoldMode) String() string {
	if h < HoldOff || h > HoldBoth {
		return "Unknown"
	}
	return holdNames[h]
}

// Holds reports whether CV output n (1 or 2) keeps its last voltage when no
// note is active.
func (h HoldMode) Holds(n int) bool {
	switch n {
	case 1:
		return h == HoldCV1 || h == HoldBoth
	case 2:
		return h == HoldCV2 || h == HoldBoth
	}
	return false
}

// Effect is the on-disk form of effects.Params.
type Effect struct {
	P            [4]float32
	Locked       [4]bool
	MidiChannel  int32
	InputChannel int32
	Enabled      bool
}

// Record is written and read as a whole with encoding/binary rules, so
// every field must stay fixed size.
type Record struct {
	Magic   uint32
	Version uint32

	Effects [effects.NumSlots]Effect

	Gain        int32 // percent
	Blend       int32 // percent
	GainLocked  bool
	BlendLocked bool

	BufferSeconds int32
	FreezeSeconds float32
	BufferLocked  bool
	FreezeLocked  bool

	// blend lock as shown on the options page, separate from the audio page
	BlendLock bool
	GranMidi  bool

	Scale      int32
	Reese      bool
	CV1Enabled bool
	CV1Channel int32
	CV2Channel int32
	Hold       HoldMode
}

func Defaults() Record {
	r := Record{
		Magic:         Magic,
		Version:       Version,
		Gain:          100,
		Blend:         80,
		BufferSeconds: 5,
		FreezeSeconds: 0.5,
		Scale:         int32(scale.Blues),
		CV1Enabled:    true,
		CV1Channel:    2,
		CV2Channel:    3,
		Hold:          HoldBoth,
	}
	r.SetEffects(effects.DefaultParams())
	return r
}

func (r *Record) SetEffects(p [effects.NumSlots]effects.Params) {
	for i := range p {
		r.Effects[i] = Effect{
			P:            p[i].P,
			Locked:       p[i].Locked,
			MidiChannel:  int32(p[i].MidiChannel),
			InputChannel: int32(p[i].InputChannel),
			Enabled:      p[i].Enabled,
		}
	}
}

func (r *Record) EffectParams() [effects.NumSlots]effects.Params {
	var out [effects.NumSlots]effects.Params
	for i, e := range r.Effects {
		out[i] = effects.Params{
			P:            e.P,
			Locked:       e.Locked,
			MidiChannel:  int(e.MidiChannel),
			InputChannel: int(e.InputChannel),
			Enabled:      e.Enabled,
		}
	}
	return out
}

// ParseHoldMode looks a hold mode up by name, ignoring case.
func ParseHoldMode(name string) (HoldMode, bool) {
	for i, n := range holdNames {
		if strings.EqualFold(n, name) {
			return HoldMode(i), true
		}
	}
	return HoldBoth, false
}
