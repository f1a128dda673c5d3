package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
	"github.com/eyebrain/Dream/util"
)

// Persister writes the current settings out. Every user facing change calls
// it once.
type Persister interface {
	Persist()
}

// Controller is the control-rate side: clock bookkeeping, gates, knobs and
// user edits. All methods are safe to call from any goroutine.
type Controller struct {
	st    *State
	flash settings.Flash
	log   *slog.Logger

	mu        sync.Mutex
	lastPress int64
	pressed   bool
}

func NewController(st *State, flash settings.Flash, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{st: st, flash: flash, log: logger}
}

func (c *Controller) State() *State { return c.st }

// Persist saves a full snapshot. Failures are logged and otherwise ignored,
// the running engine keeps its values.
func (c *Controller) Persist() {
	if c.flash == nil {
		return
	}
	if err := c.flash.Save(c.st.Settings()); err != nil {
		c.log.Error("settings write failed", "err", err)
	}
}

// Tick publishes the control clock and expires the external clock.
func (c *Controller) Tick(nowMs int64) {
	st := c.st
	st.NowMs.Store(nowMs)
	if st.ClockActive.Load() && nowMs-st.LastClockMs.Load() > ClockTimeoutMs {
		st.ClockActive.Store(false)
		c.log.Info("external clock lost", "last_ms", st.LastClockMs.Load())
	}
}

// Run ticks every TickInterval until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	start := time.Now()
	t := time.NewTicker(TickInterval * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.Tick(time.Since(start).Milliseconds())
		}
	}
}

// SetGate records the level of gate n (0 = buffer A record, 1 = freeze).
// Rising edges are counted so the audio side never misses a short pulse.
func (c *Controller) SetGate(n int, high bool) {
	if n < 0 || n > 1 {
		return
	}
	g := &c.st.gates[n]
	was := g.level.Swap(high)
	if high && !was {
		g.edges.Add(1)
		if n == 0 {
			c.log.Debug("record gate", "buffer_s", c.st.BufferSeconds.Load())
		} else {
			c.log.Debug("freeze gate", "freeze_s", c.st.FreezeSeconds.Load())
		}
	}
}

// SetKnob stores knob i (0-3). Knob 2 also drives the randomization amount
// through a dead zone and a power curve.
func (c *Controller) SetKnob(i int, v float32) {
	if i < 0 || i >= len(c.st.Knobs) {
		return
	}
	v = util.Clamp01(v)
	c.st.Knobs[i].Store(v)
	if i == 1 {
		c.st.Randomization.Store(RandomizationCurve(v))
	}
}

func RandomizationCurve(k float32) float32 {
	if k < randDeadZone {
		return 0
	}
	return float32(math.Pow(float64((k-randDeadZone)/(1-randDeadZone)), randCurve))
}

// Press handles an encoder press at nowMs. Two presses within
// DoublePressMs reset both playheads.
func (c *Controller) Press(nowMs int64) {
	c.mu.Lock()
	double := c.pressed && nowMs-c.lastPress <= DoublePressMs
	c.lastPress = nowMs
	c.pressed = true
	c.mu.Unlock()
	if double {
		c.ResetPlayheads()
	}
}

func (c *Controller) ResetPlayheads() {
	c.st.resetGen.Add(1)
	c.st.PlayA.Store(0)
	c.st.PlayB.Store(0)
}

func (c *Controller) SetGain(pct int) {
	c.st.Gain.Store(int32(util.Clamp(pct, 1, 100)))
	c.st.GainLocked.Store(true)
	c.Persist()
}

func (c *Controller) SetBlend(pct int) {
	c.st.Blend.Store(int32(util.Clamp(pct, 0, 100)))
	c.st.BlendLocked.Store(true)
	c.Persist()
}

func (c *Controller) SetBlendLock(on bool) {
	c.st.BlendLock.Store(on)
	c.Persist()
}

// SetBufferSeconds applies on the next record gate.
func (c *Controller) SetBufferSeconds(sec int) {
	c.st.BufferSeconds.Store(int32(util.Clamp(sec, BufferAMinSeconds, BufferAMaxSeconds)))
	c.st.BufferLocked.Store(true)
	c.Persist()
}

// SetFreezeSeconds applies on the next freeze gate.
func (c *Controller) SetFreezeSeconds(sec float32) {
	if sec != sec {
		return
	}
	c.st.FreezeSeconds.Store(util.Clamp[float32](sec, FreezeMinSeconds, FreezeMaxSeconds))
	c.st.FreezeLocked.Store(true)
	c.Persist()
}

func (c *Controller) SetScale(t scale.Type) {
	if !t.Valid() {
		return
	}
	c.st.Scale.Store(int32(t))
	c.Persist()
}

func (c *Controller) SetReese(on bool) {
	c.st.Reese.Store(on)
	c.Persist()
}

func (c *Controller) SetCV1Enabled(on bool) {
	c.st.CV1Enabled.Store(on)
	c.Persist()
}

// SetCVChannel sets the MIDI channel filter of CV output n (1 or 2), 0 is any.
func (c *Controller) SetCVChannel(n, ch int) {
	ch = util.Clamp(ch, 0, 16)
	switch n {
	case 1:
		c.st.CV1Channel.Store(int32(ch))
	case 2:
		c.st.CV2Channel.Store(int32(ch))
	default:
		return
	}
	c.Persist()
}

func (c *Controller) SetHoldMode(h settings.HoldMode) {
	c.st.Hold.Store(int32(util.Clamp(h, settings.HoldOff, settings.HoldBoth)))
	c.Persist()
}

func (c *Controller) SetGranMidi(on bool) {
	c.st.GranMidi.Store(on)
	c.Persist()
}

// SetClockThreshold sets the clock input level that counts as high. Runtime
// only, every boot starts from the default.
func (c *Controller) SetClockThreshold(v float32) {
	c.st.ClockThreshold.Store(util.Clamp01(v))
}

// SetMidiUSB picks the routed MIDI transport. Not part of the record.
func (c *Controller) SetMidiUSB(usb bool) {
	c.st.MidiUSB.Store(usb)
	c.log.Info("midi transport", "usb", usb)
}

func (c *Controller) SetEffectParam(k effects.Kind, i int, v float32) {
	c.st.Effects.SetParam(k, i, v)
	c.Persist()
}

func (c *Controller) SetEffectLocked(k effects.Kind, i int, locked bool) {
	c.st.Effects.SetLocked(k, i, locked)
	c.Persist()
}

func (c *Controller) SetEffectEnabled(k effects.Kind, on bool) {
	c.st.Effects.SetEnabled(k, on)
	c.Persist()
}

func (c *Controller) SetEffectInput(k effects.Kind, ch int) {
	c.st.Effects.SetInputChannel(k, ch)
	c.Persist()
}

func (c *Controller) SetEffectMidiChannel(k effects.Kind, ch int) {
	c.st.Effects.SetMidiChannel(k, ch)
	c.Persist()
}

// Reset restores factory settings and writes them out.
func (c *Controller) Reset() {
	c.st.Apply(settings.Defaults())
	c.Persist()
	c.log.Info("settings reset to defaults")
}
