package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
)

func TestRandomizationCurve(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(float32(0), RandomizationCurve(0))
	assert.Equal(float32(0), RandomizationCurve(0.049))
	assert.InDelta(0.5*0.7071068, RandomizationCurve(0.525), 1e-5)
	assert.InDelta(1, RandomizationCurve(1), 1e-6)
}

func TestEditsPersist(t *testing.T) {
	r := newRig(t, nil)
	c := r.c

	edits := []func(){
		func() { c.SetGain(150) },
		func() { c.SetBlend(-3) },
		func() { c.SetBufferSeconds(99) },
		func() { c.SetFreezeSeconds(0.1) },
		func() { c.SetScale(scale.Whole) },
		func() { c.SetReese(true) },
		func() { c.SetCV1Enabled(false) },
		func() { c.SetCVChannel(1, 20) },
		func() { c.SetCVChannel(2, 7) },
		func() { c.SetHoldMode(settings.HoldCV1) },
		func() { c.SetGranMidi(true) },
		func() { c.SetBlendLock(true) },
		func() { c.SetEffectParam(effects.Soap, 2, 0.75) },
		func() { c.SetEffectLocked(effects.Soap, 2, true) },
		func() { c.SetEffectEnabled(effects.Soap, true) },
		func() { c.SetEffectInput(effects.Soap, 2) },
		func() { c.SetEffectMidiChannel(effects.Soap, 9) },
	}
	for i, edit := range edits {
		edit()
		assert.Equal(t, i+1, r.mem.Count(), "edit %d", i)
	}

	got, err := r.mem.Load()
	require.NoError(t, err)
	assert.Equal(t, int32(100), got.Gain)
	assert.True(t, got.GainLocked)
	assert.Equal(t, int32(0), got.Blend)
	assert.Equal(t, int32(BufferAMaxSeconds), got.BufferSeconds)
	assert.Equal(t, float32(FreezeMinSeconds), got.FreezeSeconds)
	assert.Equal(t, int32(scale.Whole), got.Scale)
	assert.True(t, got.Reese)
	assert.False(t, got.CV1Enabled)
	assert.Equal(t, int32(16), got.CV1Channel)
	assert.Equal(t, int32(7), got.CV2Channel)
	assert.Equal(t, settings.HoldCV1, got.Hold)
	assert.True(t, got.GranMidi)
	assert.True(t, got.BlendLock)

	soap := got.Effects[effects.Soap]
	assert.Equal(t, float32(0.75), soap.P[2])
	assert.True(t, soap.Locked[2])
	assert.True(t, soap.Enabled)
	assert.Equal(t, int32(2), soap.InputChannel)
	assert.Equal(t, int32(9), soap.MidiChannel)
}

func TestInvalidEditsIgnored(t *testing.T) {
	r := newRig(t, nil)
	r.c.SetScale(scale.Count)
	r.c.SetCVChannel(3, 1)
	assert.Equal(t, 0, r.mem.Count())
	assert.Equal(t, scale.Blues, r.st.ScaleType())
}

func TestRuntimeOnlyEditsNotPersisted(t *testing.T) {
	r := newRig(t, nil)
	want := r.st.Settings()

	r.c.SetClockThreshold(1.7)
	assert.Equal(t, float32(1), r.st.ClockThreshold.Load())
	r.c.SetClockThreshold(0.25)
	assert.Equal(t, float32(0.25), r.st.ClockThreshold.Load())
	r.c.SetMidiUSB(false)
	assert.False(t, r.st.MidiUSB.Load())

	assert.Equal(t, 0, r.mem.Count())
	assert.Equal(t, want, r.st.Settings())
}

func TestSettingsRoundTripThroughState(t *testing.T) {
	rec := settings.Defaults()
	rec.Gain = 42
	rec.Scale = int32(scale.Pentatonic)
	rec.Hold = settings.HoldCV2
	rec.Effects[effects.Wavefolder].Enabled = true
	st := NewState(rec)
	assert.Equal(t, rec, st.Settings())
}

func TestApplyClampsGarbage(t *testing.T) {
	rec := settings.Defaults()
	rec.Gain = 1000
	rec.BufferSeconds = -4
	rec.Scale = 77
	rec.Hold = 12
	rec.CV2Channel = 200
	st := NewState(rec)
	assert.Equal(t, int32(100), st.Gain.Load())
	assert.Equal(t, int32(BufferAMinSeconds), st.BufferSeconds.Load())
	assert.Equal(t, scale.Blues, st.ScaleType())
	assert.Equal(t, settings.HoldBoth, st.HoldMode())
	assert.Equal(t, int32(16), st.CV2Channel.Load())
}

func TestResetRestoresDefaults(t *testing.T) {
	r := newRig(t, nil)
	r.c.SetGain(5)
	r.c.Reset()
	got, err := r.mem.Load()
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
}

func TestGateEdgesCounted(t *testing.T) {
	r := newRig(t, nil)
	r.c.SetGate(0, true)
	r.c.SetGate(0, true)
	r.c.SetGate(0, false)
	r.c.SetGate(0, true)
	assert.Equal(t, uint32(2), r.st.gates[0].edges.Load())
	r.c.SetGate(5, true)
}

func TestDoublePress(t *testing.T) {
	r := newRig(t, nil)
	r.c.Press(1000)
	assert.Equal(t, uint32(0), r.st.resetGen.Load())
	r.c.Press(1000 + DoublePressMs)
	assert.Equal(t, uint32(1), r.st.resetGen.Load())
	r.c.Press(2000 + DoublePressMs)
	assert.Equal(t, uint32(1), r.st.resetGen.Load())
}

func TestRunTicks(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.c.Run(ctx) }()

	assert.Eventually(t, func() bool { return r.st.NowMs.Load() > 0 }, time.Second, TickInterval*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestBendAndFrequency(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(440, NoteFrequency(69), 1e-3)
	assert.InDelta(880, NoteFrequency(81), 1e-3)
	assert.Equal(float32(1), BendMultiplier(0))
	assert.InDelta(math.Pow(2, 2.0/12), BendMultiplier(1), 1e-6)
	assert.Equal(BendMultiplier(-1), BendMultiplier(-3))
}
