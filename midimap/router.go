package midimap

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/engine"
)

// controller numbers
const (
	CCModWheel = 1
	CCVolume   = 7
	CCPan      = 10

	// effect slot params 1-4, then the enable switch
	CCEffectParam1 = 16
	CCEffectParam2 = 17
	CCEffectParam3 = 18
	CCEffectParam4 = 19
	CCEffectEnable = 80
)

// Router fans decoded MIDI out to the shared engine state. Handle runs on
// the transport's listener goroutine, never on the audio callback.
type Router struct {
	State     *engine.State
	Persister engine.Persister
}

func NewRouter(st *engine.State, p engine.Persister) *Router {
	return &Router{State: st, Persister: p}
}

func (r *Router) Handle(msg midi.Message) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		r.noteOn(ch, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		r.noteOff()
	case msg.GetControlChange(&ch, &cc, &val):
		if !r.effectCC(ch, cc, val) {
			r.globalCC(cc, val)
		}
	case msg.GetPitchBend(&ch, &rel, &abs):
		r.State.PitchBend.Store(engine.BendMultiplier(float32(rel) / 8192))
	default:
		// ignore
	}
}

// channels are 0-15 on the wire and 1-16 in settings, 0 there means any
func accepts(filter int32, ch uint8) bool {
	return filter == 0 || filter == int32(ch)+1
}

func (r *Router) noteOn(ch, key, vel uint8) {
	st := r.State
	st.NoteNumber.Store(int32(key))
	st.Velocity.Store(int32(vel))
	st.NoteChannel.Store(int32(ch) + 1)
	st.NoteFreq.Store(engine.NoteFrequency(key))
	st.NoteActive.Store(true)

	// one note may land on both trackers
	if accepts(st.CV1Channel.Load(), ch) {
		st.CV[0].Note.Store(int32(key))
		st.CV[0].Active.Store(true)
	}
	if accepts(st.CV2Channel.Load(), ch) {
		st.CV[1].Note.Store(int32(key))
		st.CV[1].Active.Store(true)
	}
}

// any release clears every tracker, not only the one that played the note
func (r *Router) noteOff() {
	st := r.State
	st.NoteActive.Store(false)
	st.CV[0].Active.Store(false)
	st.CV[1].Active.Store(false)
}

// effectCC routes cc to the first slot listening on ch. A slot with MIDI
// channel 0 never matches.
func (r *Router) effectCC(ch, cc, val uint8) bool {
	bank := r.State.Effects
	for k := effects.Kind(0); k < effects.NumSlots; k++ {
		if bank.MidiChannel(k) != int(ch)+1 {
			continue
		}
		v := float32(val) / 127
		switch cc {
		case CCEffectParam1, CCEffectParam2, CCEffectParam3, CCEffectParam4:
			bank.SetParam(k, int(cc-CCEffectParam1), v)
		case CCEffectEnable:
			bank.SetEnabled(k, val > 63)
		}
		r.persist()
		return true
	}
	return false
}

func (r *Router) globalCC(cc, val uint8) {
	st := r.State
	v := float32(val) / 127
	switch cc {
	case CCModWheel:
		st.Randomization.Store(v)
	case CCVolume:
		st.Gain.Store(int32(v * 100))
		r.persist()
	case CCPan:
		if st.BlendLocked.Load() {
			return
		}
		st.Blend.Store(int32(v * 100))
		r.persist()
	}
}

func (r *Router) persist() {
	if r.Persister != nil {
		r.Persister.Persist()
	}
}
