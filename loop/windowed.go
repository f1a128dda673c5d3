package loop

import (
	"math"

	"github.com/eyebrain/Dream/util"
)

// Windowed is the main capture buffer (buffer A). It records once into a
// fixed store and plays a movable, resizable window of the captured audio
// back at a fractional rate with cubic interpolation.
//
// Write and Read run on the audio callback. The setters are cheap field
// writes and are expected to be called from the same context; see
// engine.Orchestrator for how control-rate values are handed over.
type Windowed struct {
	buf         []AudioSample
	size        int // physical capacity
	logicalSize int // active buffer length, <= size
	writePtr    int
	recording   bool
	full        bool
	playing     bool

	// fractional read position inside the window
	readPos float64
	// window samples advanced per output sample
	rate float64

	// logical samples inside the filled region
	windowSize   int
	windowCenter int
}

// Init binds storage and resets everything. capacity is clamped to the
// storage length.
func (w *Windowed) Init(storage []AudioSample, capacity int) {
	capacity = util.Clamp(capacity, 0, len(storage))
	w.buf = storage[:capacity]
	w.size = capacity
	w.logicalSize = capacity
	w.rate = 1
	w.windowSize = capacity
	w.windowCenter = 0
	w.recording = false
	w.playing = false
	w.Clear()
}

func (w *Windowed) Clear() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.writePtr = 0
	w.readPos = 0
	w.full = false
}

// StartRecord begins a fresh capture at logical 0. Old audio stays in
// storage but is unreachable until overwritten since reads are bounded by the
// fill count.
func (w *Windowed) StartRecord() {
	w.recording = true
	w.writePtr = 0
	w.full = false
	w.playing = false
	w.readPos = 0
}

// StopRecord ends a capture early. Whatever was captured stays playable
// from the start of the filled region. No-op when not recording.
func (w *Windowed) StopRecord() {
	if !w.recording {
		return
	}
	w.recording = false
	if w.Fill() > 0 {
		w.playing = true
		w.readPos = 0
	}
}

// Write stores one sample while recording. Reaching the logical size is the
// only way a recording ends by itself: the buffer flips to full and starts
// playing from 0.
func (w *Windowed) Write(s AudioSample) {
	if !w.recording || w.logicalSize == 0 {
		return
	}
	w.buf[w.writePtr] = s
	w.writePtr++
	if w.writePtr >= w.logicalSize {
		w.writePtr = 0
		w.full = true
		w.recording = false
		w.playing = true
		w.readPos = 0
	}
}

// Fill is the number of valid samples.
func (w *Windowed) Fill() int {
	if w.full {
		return w.logicalSize
	}
	return w.writePtr
}

func (w *Windowed) IsFull() bool      { return w.Fill() >= w.logicalSize }
func (w *Windowed) IsRecording() bool { return w.recording }
func (w *Windowed) IsPlaying() bool   { return w.playing }
func (w *Windowed) LogicalSize() int  { return w.logicalSize }
func (w *Windowed) Capacity() int     { return w.size }
func (w *Windowed) Rate() float64     { return w.rate }
func (w *Windowed) WindowSize() int   { return w.windowSize }
func (w *Windowed) WindowCenter() int { return w.windowCenter }

// SetLogicalSize resizes the active region, n in [1, capacity].
func (w *Windowed) SetLogicalSize(n int) {
	if w.size == 0 {
		return
	}
	n = util.Clamp(n, 1, w.size)
	w.logicalSize = n
	if w.writePtr > n {
		w.writePtr = n
	}
	if w.writePtr == n {
		w.full = true
	}
}

func (w *Windowed) SetRate(r float64) { w.rate = r }

func (w *Windowed) Play(start bool) {
	w.playing = start
	if start {
		w.readPos = 0
	}
}

// SetWindowSizeFrac maps f in [0,1] onto a window length of the filled
// region. Tiny fractions may give 0, which Read treats as the whole region.
func (w *Windowed) SetWindowSizeFrac(f float32, filled int) {
	if filled <= 0 {
		w.windowSize = 0
		return
	}
	s := int(util.Clamp01(f) * float32(filled))
	w.windowSize = util.Clamp(s, 0, filled)
}

// SetWindowFromCenterFrac maps f in [0,1] onto a logical center index.
func (w *Windowed) SetWindowFromCenterFrac(f float32, filled int) {
	if filled <= 0 {
		w.windowCenter = 0
		return
	}
	c := int(util.Clamp01(f) * float32(filled))
	w.windowCenter = util.Clamp(c, 0, filled-1)
}

// effectiveWindow is the window length Read actually plays.
func (w *Windowed) effectiveWindow(filled int) int {
	win := w.windowSize
	if win == 0 || win > filled {
		win = filled
	}
	return win
}

// WindowBounds returns the logical first and last index of the window that
// Read would play for the given fill count. Both lie in [0, filled).
func (w *Windowed) WindowBounds(filled int) (start, end, size int) {
	if filled <= 0 {
		return 0, 0, 0
	}
	size = w.effectiveWindow(filled)
	center := util.Clamp(w.windowCenter, 0, filled-1)
	start = mod(center-size/2, filled)
	end = mod(start+size-1, filled)
	return start, end, size
}

// Jump moves the playhead to frac of the current window.
func (w *Windowed) Jump(frac float32) {
	w.readPos = float64(util.Clamp01(frac)) * float64(w.windowSize)
}

func (w *Windowed) Read() AudioSample {
	if !w.playing {
		return 0
	}
	filled := w.Fill()
	if filled == 0 || w.logicalSize == 0 {
		return 0
	}

	win := w.effectiveWindow(filled)
	w.readPos = wrapPos(w.readPos, float64(win))

	i0 := int(math.Floor(w.readPos))
	frac := float32(w.readPos - float64(i0))

	// a full buffer has wrapped, its oldest sample sits under the write cursor
	oldest := 0
	if w.full {
		oldest = w.writePtr
	}
	center := util.Clamp(w.windowCenter, 0, filled-1)
	start := center - win/2

	x0 := w.buf[LogicalToPhysical(start+i0, filled, oldest, w.logicalSize)]
	x1 := w.buf[LogicalToPhysical(start+(i0+1)%win, filled, oldest, w.logicalSize)]
	x2 := w.buf[LogicalToPhysical(start+(i0+2)%win, filled, oldest, w.logicalSize)]
	x3 := w.buf[LogicalToPhysical(start+(i0+3)%win, filled, oldest, w.logicalSize)]

	out := cubicInterp(x0, x1, x2, x3, frac)

	w.readPos = wrapPos(w.readPos+w.rate, float64(win))
	return out
}

// GetPlayheadPos is the read position as a fraction of the window.
func (w *Windowed) GetPlayheadPos() float32 {
	if w.size == 0 || w.windowSize == 0 {
		return 0
	}
	return util.Clamp01(float32(w.readPos / float64(w.windowSize)))
}

// Snapshot copies the filled region out, oldest first. Allocates, keep it
// off the audio callback.
func (w *Windowed) Snapshot(rate int) Sample {
	filled := w.Fill()
	oldest := 0
	if w.full {
		oldest = w.writePtr
	}
	data := make([]AudioSample, filled)
	for i := range data {
		data[i] = w.buf[LogicalToPhysical(i, filled, oldest, w.logicalSize)]
	}
	return Sample{Data: data, Rate: rate}
}

// wrapPos folds p into [0, b) without looping on large rates.
func wrapPos(p, b float64) float64 {
	if b <= 0 {
		return 0
	}
	if p >= 0 && p < b {
		return p
	}
	p = math.Mod(p, b)
	if p < 0 {
		p += b
	}
	if p >= b {
		p = 0
	}
	return p
}
