package engine

import (
	"math"
	"math/rand"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/loop"
	"github.com/eyebrain/Dream/util"
)

// Channels is the fixed audio channel count in both directions. Input 4
// carries the external clock.
const Channels = 4

const clockInput = 3

// Orchestrator is the audio callback. It owns both buffers and the effect
// chain; everything it shares with other goroutines goes through State.
type Orchestrator struct {
	st         *State
	sampleRate int

	a     loop.Windowed
	b     *loop.Capture
	chain *effects.Chain
	rng   *rand.Rand
	cv    cvOut

	ready bool

	// gate bookkeeping, see applyGates
	seenEdges   [2]uint32
	seenReset   uint32
	gateRecord  bool
	freezeHeld  bool
	freezeWrite bool

	clockPrev    float32
	chorusToggle bool

	randCounter int
}

// New allocates the buffers for the longest allowed lengths up front so the
// callback never allocates.
func New(st *State, sampleRate int, seed int64) *Orchestrator {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	o := &Orchestrator{
		st:         st,
		sampleRate: sampleRate,
		b:          loop.NewCapture(make([]loop.AudioSample, FreezeMaxSeconds*sampleRate)),
		chain:      effects.NewChain(st.Effects, float64(sampleRate)),
		rng:        rand.New(rand.NewSource(seed)),
	}
	o.a.Init(make([]loop.AudioSample, BufferAMaxSeconds*sampleRate), BufferAMaxSeconds*sampleRate)
	// nothing recorded yet, silent until the first full capture
	o.a.SetLogicalSize(o.bufferASamples())
	o.seenEdges[0] = st.gates[0].edges.Load()
	o.seenEdges[1] = st.gates[1].edges.Load()
	o.seenReset = st.resetGen.Load()
	o.ready = true
	return o
}

func (o *Orchestrator) SampleRate() int { return o.sampleRate }

// BufferA and BufferB expose the buffers for snapshots. Only touch them
// while the callback is not running.
func (o *Orchestrator) BufferA() *loop.Windowed { return &o.a }
func (o *Orchestrator) BufferB() *loop.Capture  { return o.b }

func (o *Orchestrator) bufferASamples() int {
	return int(o.st.BufferSeconds.Load()) * o.sampleRate
}

func (o *Orchestrator) freezeSamples() int {
	return int(o.st.FreezeSeconds.Load() * float32(o.sampleRate))
}

// applyGates consumes gate edges posted by the control loop. A rising edge
// always starts, the current level decides whether it is already over.
func (o *Orchestrator) applyGates() {
	st := o.st

	if e := st.gates[0].edges.Load(); e != o.seenEdges[0] {
		o.seenEdges[0] = e
		o.a.SetLogicalSize(o.bufferASamples())
		o.a.StartRecord()
		o.gateRecord = true
	}
	if o.gateRecord && !st.gates[0].level.Load() {
		o.a.StopRecord()
		// a short capture becomes the whole buffer so it is playable
		if f := o.a.Fill(); f > 0 && f < o.a.LogicalSize() {
			o.a.SetLogicalSize(f)
		}
		o.gateRecord = false
	}

	if e := st.gates[1].edges.Load(); e != o.seenEdges[1] {
		o.seenEdges[1] = e
		o.b.SetCapacity(o.freezeSamples())
		o.b.Reset()
		o.b.Record(true)
		o.b.Play(true)
		o.freezeHeld = true
		o.freezeWrite = true
	}
	if o.freezeHeld && !st.gates[1].level.Load() {
		o.b.Record(false)
		o.b.Play(false)
		o.b.Reset()
		o.freezeHeld = false
		o.freezeWrite = false
	}

	if r := st.resetGen.Load(); r != o.seenReset {
		o.seenReset = r
		o.a.Jump(0)
		if o.b.IsPlaying() {
			o.b.Play(true)
		}
	}
}

// applyWindow follows the knobs once the buffer is full. While filling the
// window is pinned to the whole filled region, centered.
func (o *Orchestrator) applyWindow() {
	logical := o.a.LogicalSize()
	if o.a.Fill() >= logical {
		win := minWindowFrac + (1-minWindowFrac)*o.st.Knobs[0].Load()
		o.a.SetWindowSizeFrac(win, logical)
		o.a.SetWindowFromCenterFrac(o.st.Knobs[2].Load(), logical)
		return
	}
	filled := util.Max(o.a.Fill(), 1)
	o.a.SetWindowSizeFrac(1, filled)
	o.a.SetWindowFromCenterFrac(0.5, filled)
}

// playRate maps the pitch knob, and with granular MIDI the held note and
// bend, onto a playback rate.
func (o *Orchestrator) playRate() float64 {
	st := o.st
	semis := float64(st.Knobs[3].Load()-0.5) * pitchSpan * 12
	rate := math.Pow(2, semis/12)
	if st.GranMidi.Load() && st.NoteActive.Load() {
		if f := st.NoteFreq.Load(); f > 0 {
			rate *= float64(f) / 440
		}
		rate *= float64(st.PitchBend.Load())
	}
	return rate
}

func (o *Orchestrator) jitterInterval(amt float32) int {
	ms := jitterSlowMs * math.Pow(jitterFastMs/jitterSlowMs, float64(amt))
	return util.Max(int(ms/1000*float64(o.sampleRate)), 1)
}

func silence(out [][]float32, i int) {
	for ch := range out {
		if i < len(out[ch]) {
			out[ch][i] = 0
		}
	}
}

func sampleAt(in [][]float32, ch, i int) float32 {
	if ch < len(in) && i < len(in[ch]) {
		return in[ch][i]
	}
	return 0
}

func put(out [][]float32, ch, i int, v float32) {
	if ch < len(out) && i < len(out[ch]) {
		out[ch][i] = v
	}
}

// Process renders one block. in and out are indexed [channel][frame]; the
// frame count is taken from out[0]. Missing channels read as silence.
func (o *Orchestrator) Process(in, out [][]float32) {
	if len(out) == 0 {
		return
	}
	frames := len(out[0])
	if !o.ready || o.st == nil {
		for i := 0; i < frames; i++ {
			silence(out, i)
		}
		return
	}
	st := o.st

	o.applyGates()
	o.applyWindow()

	now := st.NowMs.Load()
	threshold := st.ClockThreshold.Load()
	clockActive := st.ClockActive.Load()
	rate := o.playRate()
	amt := st.Randomization.Load()
	interval := o.jitterInterval(amt)
	blend := util.Clamp01(st.BlendAmount())
	gain := float32(Headroom) * float32(util.Clamp(st.Gain.Load(), 0, 100)) / 100

	cvIn := cvInput{
		scale:      st.ScaleType(),
		hold:       st.HoldMode(),
		reese:      st.Reese.Load(),
		cv1Enabled: st.CV1Enabled.Load(),
		cv1Active:  st.CV[0].Active.Load(),
		cv1Note:    uint8(st.CV[0].Note.Load()),
		cv2Active:  st.CV[1].Active.Load(),
		cv2Note:    uint8(st.CV[1].Note.Load()),
	}
	var cv1, cv2 float32
	cvDone := false

	for i := 0; i < frames; i++ {
		dry := sampleAt(in, 0, i)

		clock := sampleAt(in, clockInput, i)
		trigger := clock > threshold && o.clockPrev <= threshold
		o.clockPrev = clock
		if trigger {
			clockActive = true
			st.ClockActive.Store(true)
			st.LastClockMs.Store(now)
			st.GateOut.Store(true)
			st.gateOffAt.Store(now + GatePulseMs)
			if st.Effects.Enabled(effects.Chorus) {
				o.chorusToggle = !o.chorusToggle
				v := float32(0.2)
				if o.chorusToggle {
					v = 0.8
				}
				st.Effects.SetParam(effects.Chorus, effects.WetDry, v)
			}
		}

		o.a.Write(dry)

		if o.a.Fill() < o.a.LogicalSize() {
			silence(out, i)
			continue
		}

		if o.a.IsPlaying() && !o.a.IsRecording() {
			o.a.SetRate(rate)
		}

		if amt > 0 {
			if clockActive {
				if trigger {
					o.a.Jump(o.rng.Float32())
				}
			} else {
				if o.randCounter >= interval {
					o.randCounter = 0
				}
				if o.randCounter == 0 {
					o.a.Jump(o.rng.Float32())
				}
				o.randCounter++
			}
		} else {
			o.randCounter = 0
		}

		var outA float32
		if o.a.IsPlaying() {
			outA = o.a.Read()
		}
		outB := o.b.ReadLooping()
		wet := outA
		if outB != 0 {
			wet = outB
		}
		main := ((1-blend)*dry + blend*wet) * gain

		if o.freezeWrite && o.b.IsRecording() {
			o.b.Write(dry)
			if !o.b.IsRecording() {
				o.freezeWrite = false
				o.b.Play(true)
			}
		}

		fxL, fxR := o.chain.Process(dry, sampleAt(in, 1, i), sampleAt(in, 2, i))
		out1 := main + fxL
		out2 := main + fxR

		cv1, cv2 = o.cv.compute(cvIn)
		cvDone = true

		put(out, 0, i, main)
		put(out, 1, i, out1)
		put(out, 2, i, (main+out1+out2)/3)
		put(out, 3, i, 0)
	}

	if cvDone {
		st.CVVolts[0].Store(cv1)
		st.CVVolts[1].Store(cv2)
		st.DAC[0].Store(uint32(DAC(cv1)))
		st.DAC[1].Store(uint32(DAC(cv2)))
	}
	o.publish(now)
}

// publish refreshes the UI fields and ends the clock pulse.
func (o *Orchestrator) publish(now int64) {
	st := o.st
	if n := o.a.LogicalSize(); n > 0 {
		st.FillA.Store(float32(o.a.Fill()) / float32(n))
	}
	if c := o.b.Capacity(); c > 0 {
		st.FillB.Store(float32(o.b.GetCurrentRecordedSize()) / float32(c))
	}
	st.PlayA.Store(o.a.GetPlayheadPos())
	st.PlayB.Store(o.b.GetPlayheadPos())
	st.RecordingA.Store(o.a.IsRecording())
	st.Freezing.Store(o.b.IsRecording())

	if st.GateOut.Load() && now >= st.gateOffAt.Load() {
		st.GateOut.Store(false)
	}
}
