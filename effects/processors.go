package effects

import (
	"math"
)

// Processor is the per-sample contract every slot algorithm satisfies.
// Update receives the slot's four normalized parameters and is only called
// when they changed. Neither call may allocate.
type Processor interface {
	Process(in float32) float32
	Update(p [4]float32)
}

// the firmware doubles every knob for extended range
const paramRange = 2.0

// SVF is a per-channel zero-delay-feedback state variable filter that hands
// back every tap for each sample.
type SVF struct {
	g, k float32

	ic1eq, ic2eq []float32
}

// SVFOutputs holds the taps of one SVF step.
type SVFOutputs struct {
	Lowpass  float32
	Highpass float32
	Bandpass float32
	Notch    float32
}

func NewSVF(channels int) *SVF {
	return &SVF{
		ic1eq: make([]float32, channels),
		ic2eq: make([]float32, channels),
	}
}

func (s *SVF) Reset() {
	for i := range s.ic1eq {
		s.ic1eq[i] = 0
		s.ic2eq[i] = 0
	}
}

// SetFrequencyAndQ prewarps frequency for the bilinear transform.
func (s *SVF) SetFrequencyAndQ(sampleRate, frequency, q float64) {
	s.g = float32(math.Tan(math.Pi * frequency / sampleRate))
	s.k = float32(1 / q)
}

func (s *SVF) ProcessSample(in float32, ch int) SVFOutputs {
	ic1eq, ic2eq := s.ic1eq[ch], s.ic2eq[ch]

	a1 := 1 / (1 + s.g*(s.g+s.k))
	a2 := s.g * a1
	a3 := s.g * a2

	v3 := in - ic2eq
	v1 := a1*ic1eq + a2*v3
	v2 := ic2eq + a2*ic1eq + a3*v3

	s.ic1eq[ch] = 2*v1 - ic1eq
	s.ic2eq[ch] = 2*v2 - ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: in - s.k*v1 - v2,
		Notch:    in - s.k*v1,
	}
}

// svf drives an SVF through tanh and taps lowpass (Ladder) or bandpass
// (Soap).
type svf struct {
	sampleRate float64
	band       bool
	filter     *SVF
	drive      float32
}

func newSVF(sampleRate float64, band bool) *svf {
	f := &svf{sampleRate: sampleRate, band: band, filter: NewSVF(1), drive: 0.1}
	f.tune(1000, 0)
	return f
}

// tune clamps hz below nyquist and maps res in [0,1) onto Q, 0 is Q=0.5.
func (f *svf) tune(hz, res float64) {
	hz = math.Max(20, math.Min(hz, f.sampleRate*0.45))
	res = math.Max(0, math.Min(res, 0.98))
	f.filter.SetFrequencyAndQ(f.sampleRate, hz, 1/(2-2*res))
}

func (f *svf) Update(p [4]float32) {
	p1 := float64(p[0]) * paramRange
	p2 := float64(p[1]) * paramRange
	p3 := float64(p[2]) * paramRange
	f.tune(p1*20000+20, p2*0.45)
	f.drive = float32(p3*0.45 + 0.1)
}

func (f *svf) Process(in float32) float32 {
	x := float32(math.Tanh(float64(in * (1 + f.drive))))
	out := f.filter.ProcessSample(x, 0)
	if f.band {
		return out.Bandpass
	}
	return out.Lowpass
}

// decimator holds samples for a while and throws away low bits.
type decimator struct {
	downsample float32 // 0..1
	bitcrush   float32 // 0..1
	held       float32
	count      int
}

func newDecimator() *decimator {
	return &decimator{downsample: 0.2, bitcrush: 0.1}
}

func (d *decimator) Update(p [4]float32) {
	d.downsample = clampf(p[0]*paramRange*0.45+0.1, 0, 1)
	d.bitcrush = clampf(p[1]*paramRange, 0, 2) / 2
}

func (d *decimator) Process(in float32) float32 {
	period := int(d.downsample * 64)
	d.count++
	if d.count > period {
		d.count = 0
		d.held = in
	}
	bits := 16 - int(d.bitcrush*15)
	steps := float32(int(1) << uint(bits-1))
	return float32(math.Round(float64(d.held*steps))) / steps
}

// wavefolder reflects the signal back inside [-1,1] instead of clipping.
type wavefolder struct {
	gain, offset float32
}

func newWavefolder() *wavefolder {
	return &wavefolder{gain: 1}
}

func (w *wavefolder) Update(p [4]float32) {
	// scaled up so the folding is audible over the firmware's 0.1..1 range
	w.gain = (p[0]*paramRange*0.45 + 0.1) * 4
	w.offset = p[1]*paramRange*0.45 + 0.1 - 0.55
}

func (w *wavefolder) Process(in float32) float32 {
	x := float64(in*w.gain + w.offset)
	// triangle fold: period 4, peaks at +-1
	return float32(4*math.Abs(0.25*x+0.25-math.Floor(0.25*x+0.75)) - 1)
}

const chorusMaxDelaySeconds = 0.05

// chorus is a single modulated delay line with feedback.
type chorus struct {
	sampleRate float64
	line       []float32
	write      int

	delay    float32 // samples
	feedback float32
	lfoInc   float64
	depth    float32 // samples
	phase    float64
}

func newChorus(sampleRate float64) *chorus {
	c := &chorus{
		sampleRate: sampleRate,
		line:       make([]float32, int(sampleRate*chorusMaxDelaySeconds)+4),
	}
	c.Update([4]float32{0.3, 0.2, 0, 0.5})
	return c
}

func (c *chorus) Update(p [4]float32) {
	maxDelay := float32(len(c.line) - 4)
	// 5..25 ms base delay
	c.delay = float32(c.sampleRate) * (0.005 + 0.01*p[0]*paramRange)
	c.feedback = clampf(p[1]*paramRange*0.45, 0, 0.9)
	c.lfoInc = float64(p[2]*paramRange*8+0.1) / c.sampleRate
	c.depth = p[3] * paramRange * float32(c.sampleRate) * 0.002
	if c.delay+c.depth > maxDelay {
		c.depth = maxDelay - c.delay
		if c.depth < 0 {
			c.delay, c.depth = maxDelay, 0
		}
	}
}

func (c *chorus) Process(in float32) float32 {
	n := len(c.line)
	mod := c.delay + c.depth*float32(math.Sin(2*math.Pi*c.phase))
	if mod < 1 {
		mod = 1
	}
	c.phase += c.lfoInc
	if c.phase >= 1 {
		c.phase -= 1
	}

	pos := float32(c.write) - mod
	for pos < 0 {
		pos += float32(n)
	}
	i0 := int(pos)
	frac := pos - float32(i0)
	i1 := (i0 + 1) % n
	i0 %= n
	wet := c.line[i0] + (c.line[i1]-c.line[i0])*frac

	c.line[c.write] = in + wet*c.feedback
	c.write++
	if c.write >= n {
		c.write = 0
	}
	return wet
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
