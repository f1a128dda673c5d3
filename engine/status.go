package engine

import (
	"github.com/eyebrain/Dream/effects"
)

type EffectStatus struct {
	Name         string     `json:"name"`
	Params       [4]float32 `json:"params"`
	Locked       [4]bool    `json:"locked"`
	MidiChannel  int        `json:"midi_channel"`
	InputChannel int        `json:"input_channel"`
	Enabled      bool       `json:"enabled"`
}

// Status is a read-only view for displays and the HTTP surface.
type Status struct {
	Knobs         [4]float32 `json:"knobs"`
	Randomization float32    `json:"randomization"`
	Gain          int        `json:"gain"`
	Blend         int        `json:"blend"`
	BufferSeconds int        `json:"buffer_seconds"`
	FreezeSeconds float32    `json:"freeze_seconds"`
	Scale         string     `json:"scale"`
	Reese         bool       `json:"reese"`
	CV1Enabled    bool       `json:"cv1_enabled"`
	CV1Channel    int        `json:"cv1_channel"`
	CV2Channel    int        `json:"cv2_channel"`
	Hold          string     `json:"hold"`
	GranMidi      bool       `json:"gran_midi"`
	MidiUSB       bool       `json:"midi_usb"`

	FillA      float32    `json:"fill_a"`
	FillB      float32    `json:"fill_b"`
	PlayA      float32    `json:"play_a"`
	PlayB      float32    `json:"play_b"`
	RecordingA bool       `json:"recording_a"`
	Freezing   bool       `json:"freezing"`
	Clock      bool       `json:"clock"`
	GateOut    bool       `json:"gate_out"`
	CVVolts    [2]float32 `json:"cv_volts"`
	DAC        [2]uint16  `json:"dac"`

	Effects [effects.NumSlots]EffectStatus `json:"effects"`
}

func (s *State) Status() Status {
	out := Status{
		Randomization: s.Randomization.Load(),
		Gain:          int(s.Gain.Load()),
		Blend:         int(s.Blend.Load()),
		BufferSeconds: int(s.BufferSeconds.Load()),
		FreezeSeconds: s.FreezeSeconds.Load(),
		Scale:         s.ScaleType().String(),
		Reese:         s.Reese.Load(),
		CV1Enabled:    s.CV1Enabled.Load(),
		CV1Channel:    int(s.CV1Channel.Load()),
		CV2Channel:    int(s.CV2Channel.Load()),
		Hold:          s.HoldMode().String(),
		GranMidi:      s.GranMidi.Load(),
		MidiUSB:       s.MidiUSB.Load(),
		FillA:         s.FillA.Load(),
		FillB:         s.FillB.Load(),
		PlayA:         s.PlayA.Load(),
		PlayB:         s.PlayB.Load(),
		RecordingA:    s.RecordingA.Load(),
		Freezing:      s.Freezing.Load(),
		Clock:         s.ClockActive.Load(),
		GateOut:       s.GateOut.Load(),
	}
	for i := range out.Knobs {
		out.Knobs[i] = s.Knobs[i].Load()
	}
	for i := range out.CVVolts {
		out.CVVolts[i] = s.CVVolts[i].Load()
		out.DAC[i] = uint16(s.DAC[i].Load())
	}
	for i, p := range s.Effects.All() {
		out.Effects[i] = EffectStatus{
			Name:         effects.Kind(i).String(),
			Params:       p.P,
			Locked:       p.Locked,
			MidiChannel:  p.MidiChannel,
			InputChannel: p.InputChannel,
			Enabled:      p.Enabled,
		}
	}
	return out
}
