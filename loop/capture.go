package loop

import (
	"github.com/eyebrain/Dream/util"
)

type CaptureState int

const (
	Idle CaptureState = iota
	Recording
	Looping
)

func (s CaptureState) String() string {
	switch s {
	case Recording:
		return "recording"
	case Looping:
		return "looping"
	}
	return "idle"
}

// Capture is the freeze buffer (buffer B): record until full or told to stop,
// then loop over exactly what was recorded.
type Capture struct {
	buf      []AudioSample
	capacity int
	recorded int
	readPos  int

	recording bool
	playing   bool
}

func NewCapture(storage []AudioSample) *Capture {
	c := &Capture{buf: storage, capacity: len(storage)}
	return c
}

// SetCapacity limits how many samples a capture takes, clamped to storage.
// Takes effect on the next Reset.
func (c *Capture) SetCapacity(n int) {
	c.capacity = util.Clamp(n, 1, len(c.buf))
}

func (c *Capture) Capacity() int { return c.capacity }

// Reset discards the capture and goes back to idle.
func (c *Capture) Reset() {
	c.recorded = 0
	c.readPos = 0
	c.recording = false
	c.playing = false
}

func (c *Capture) Record(on bool) {
	c.recording = on && c.recorded < c.capacity && c.capacity <= len(c.buf)
}

// Play starts looping from the top of the capture.
func (c *Capture) Play(on bool) {
	c.playing = on
	c.readPos = 0
}

func (c *Capture) IsRecording() bool { return c.recording }
func (c *Capture) IsPlaying() bool   { return c.playing }

func (c *Capture) State() CaptureState {
	switch {
	case c.recording:
		return Recording
	case c.playing && c.recorded > 0:
		return Looping
	}
	return Idle
}

// Write appends while recording and stops recording by itself once the
// capacity is reached.
func (c *Capture) Write(s AudioSample) {
	if !c.recording {
		return
	}
	c.buf[c.recorded] = s
	c.recorded++
	if c.recorded >= c.capacity {
		c.recording = false
	}
}

// ReadLooping cycles over the recorded samples only, so short captures loop
// tight. Silent when idle or empty.
func (c *Capture) ReadLooping() AudioSample {
	if !c.playing || c.recorded == 0 {
		return 0
	}
	if c.readPos >= c.recorded {
		c.readPos = 0
	}
	s := c.buf[c.readPos]
	c.readPos++
	if c.readPos >= c.recorded {
		c.readPos = 0
	}
	return s
}

func (c *Capture) GetCurrentRecordedSize() int { return c.recorded }

func (c *Capture) GetPlayheadPos() float32 {
	if c.recorded == 0 {
		return 0
	}
	return float32(c.readPos) / float32(c.recorded)
}

func (c *Capture) Snapshot(rate int) Sample {
	data := make([]AudioSample, c.recorded)
	copy(data, c.buf[:c.recorded])
	return Sample{Data: data, Rate: rate}
}
