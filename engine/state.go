package engine

import (
	"math"
	"sync/atomic"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
	"github.com/eyebrain/Dream/util"
)

// NoteTracker follows the last note seen on one CV output's MIDI channel.
type NoteTracker struct {
	Active atomic.Bool
	Note   atomic.Int32
}

type gateIn struct {
	level atomic.Bool
	// bumped on every rising edge
	edges atomic.Uint32
}

// State is everything the audio callback shares with the control loop and
// MIDI handling. Each field is its own atomic with a single writer; readers
// get no consistency across fields.
type State struct {
	Effects *effects.Bank

	// raw knob positions 0..1
	Knobs         [4]util.Float32
	Randomization util.Float32

	// audio page, percent
	Gain        atomic.Int32
	Blend       atomic.Int32
	GainLocked  atomic.Bool
	BlendLocked atomic.Bool

	BufferSeconds atomic.Int32
	FreezeSeconds util.Float32
	BufferLocked  atomic.Bool
	FreezeLocked  atomic.Bool
	BlendLock     atomic.Bool
	GranMidi      atomic.Bool

	Scale      atomic.Int32
	Reese      atomic.Bool
	CV1Enabled atomic.Bool
	CV1Channel atomic.Int32
	CV2Channel atomic.Int32
	Hold       atomic.Int32

	// true routes the USB transport, false the DIN one
	MidiUSB atomic.Bool

	NoteActive  atomic.Bool
	NoteNumber  atomic.Int32
	Velocity    atomic.Int32
	NoteChannel atomic.Int32
	NoteFreq    util.Float32
	PitchBend   util.Float32 // rate multiplier
	CV          [2]NoteTracker

	ClockThreshold util.Float32
	ClockActive    atomic.Bool
	LastClockMs    atomic.Int64
	NowMs          atomic.Int64
	GateOut        atomic.Bool
	gateOffAt      atomic.Int64

	gates    [2]gateIn
	resetGen atomic.Uint32

	// written by the audio side after every block
	FillA      util.Float32
	FillB      util.Float32
	PlayA      util.Float32
	PlayB      util.Float32
	RecordingA atomic.Bool
	Freezing   atomic.Bool
	CVVolts    [2]util.Float32
	DAC        [2]atomic.Uint32
}

func NewState(rec settings.Record) *State {
	s := &State{Effects: effects.NewBank(rec.EffectParams())}
	// whole window, no jitter, centered pitch
	s.Knobs[0].Store(1)
	s.Knobs[3].Store(0.5)
	s.PitchBend.Store(1)
	s.NoteFreq.Store(440)
	s.NoteNumber.Store(60)
	s.CV[0].Note.Store(60)
	s.CV[1].Note.Store(60)
	s.ClockThreshold.Store(DefaultClockThreshold)
	s.MidiUSB.Store(true)
	s.DAC[0].Store(uint32(DAC(0)))
	s.DAC[1].Store(uint32(DAC(0)))
	s.Apply(rec)
	return s
}

// Apply loads a settings record, clamping every field to its range.
func (s *State) Apply(r settings.Record) {
	s.Effects.SetAll(r.EffectParams())
	s.Gain.Store(int32(util.Clamp(r.Gain, 0, 100)))
	s.Blend.Store(int32(util.Clamp(r.Blend, 0, 100)))
	s.GainLocked.Store(r.GainLocked)
	s.BlendLocked.Store(r.BlendLocked)
	s.BufferSeconds.Store(util.Clamp(r.BufferSeconds, BufferAMinSeconds, BufferAMaxSeconds))
	fs := r.FreezeSeconds
	if math.IsNaN(float64(fs)) {
		fs = FreezeDefaultSeconds
	}
	s.FreezeSeconds.Store(util.Clamp[float32](fs, FreezeMinSeconds, FreezeMaxSeconds))
	s.BufferLocked.Store(r.BufferLocked)
	s.FreezeLocked.Store(r.FreezeLocked)
	s.BlendLock.Store(r.BlendLock)
	s.GranMidi.Store(r.GranMidi)

	sc := scale.Type(r.Scale)
	if !sc.Valid() {
		sc = scale.Blues
	}
	s.Scale.Store(int32(sc))
	s.Reese.Store(r.Reese)
	s.CV1Enabled.Store(r.CV1Enabled)
	s.CV1Channel.Store(util.Clamp(r.CV1Channel, 0, 16))
	s.CV2Channel.Store(util.Clamp(r.CV2Channel, 0, 16))
	s.Hold.Store(int32(util.Clamp(r.Hold, settings.HoldOff, settings.HoldBoth)))
}

// Settings snapshots the persisted fields.
func (s *State) Settings() settings.Record {
	r := settings.Record{
		Magic:         settings.Magic,
		Version:       settings.Version,
		Gain:          s.Gain.Load(),
		Blend:         s.Blend.Load(),
		GainLocked:    s.GainLocked.Load(),
		BlendLocked:   s.BlendLocked.Load(),
		BufferSeconds: s.BufferSeconds.Load(),
		FreezeSeconds: s.FreezeSeconds.Load(),
		BufferLocked:  s.BufferLocked.Load(),
		FreezeLocked:  s.FreezeLocked.Load(),
		BlendLock:     s.BlendLock.Load(),
		GranMidi:      s.GranMidi.Load(),
		Scale:         s.Scale.Load(),
		Reese:         s.Reese.Load(),
		CV1Enabled:    s.CV1Enabled.Load(),
		CV1Channel:    s.CV1Channel.Load(),
		CV2Channel:    s.CV2Channel.Load(),
		Hold:          settings.HoldMode(s.Hold.Load()),
	}
	r.SetEffects(s.Effects.All())
	return r
}

func (s *State) BlendAmount() float32 { return float32(s.Blend.Load()) / 100 }

func (s *State) ScaleType() scale.Type { return scale.Type(s.Scale.Load()) }

func (s *State) HoldMode() settings.HoldMode { return settings.HoldMode(s.Hold.Load()) }

// BendMultiplier turns a normalized bend in [-1,1] into a rate multiplier
// over +-2 semitones.
func BendMultiplier(norm float32) float32 {
	norm = util.Clamp[float32](norm, -1, 1)
	return float32(math.Pow(2, float64(norm)*bendRange/12))
}

// NoteFrequency is equal tempered with A4 (69) at 440 Hz.
func NoteFrequency(note uint8) float32 {
	return float32(440 * math.Pow(2, (float64(note)-69)/12))
}
