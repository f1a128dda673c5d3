package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spy struct {
	processed int
	updates   int
	last      [4]float32
}

func (s *spy) Process(in float32) float32 { s.processed++; return -in }
func (s *spy) Update(p [4]float32)        { s.updates++; s.last = p }

func spyChain(bank *Bank) (*Chain, [NumSlots]*spy) {
	c := NewChain(bank, 48000)
	var spies [NumSlots]*spy
	for k := range c.procs {
		spies[k] = &spy{}
		c.procs[k] = spies[k]
	}
	return c, spies
}

func allOff() [NumSlots]Params {
	p := DefaultParams()
	for i := range p {
		p[i].Enabled = false
	}
	return p
}

func TestDisabledSlotsAreSilentAndSkipped(t *testing.T) {
	assert := assert.New(t)
	c, spies := spyChain(NewBank(allOff()))

	for i := 0; i < 100; i++ {
		l, r := c.Process(0.5, 0.25, -0.5)
		assert.Equal(float32(0), l)
		assert.Equal(float32(0), r)
	}
	for k, s := range spies {
		assert.Zero(s.processed, "slot %v", Kind(k))
	}
}

func TestWetDryAndBusWeight(t *testing.T) {
	assert := assert.New(t)
	p := allOff()
	p[Decimator].Enabled = true
	p[Decimator].P[WetDry] = 0
	bank := NewBank(p)
	c, _ := spyChain(bank)

	// dry only: half the input on both sides
	l, r := c.Process(0.8, 0, 0)
	assert.InDelta(0.4, l, 1e-6)
	assert.InDelta(0.4, r, 1e-6)

	// fully wet: the spy inverts
	bank.SetParam(Decimator, WetDry, 1)
	l, r = c.Process(0.8, 0, 0)
	assert.InDelta(-0.4, l, 1e-6)
	assert.InDelta(-0.4, r, 1e-6)

	// half: inverted and dry cancel
	bank.SetParam(Decimator, WetDry, 0.5)
	l, _ = c.Process(0.8, 0, 0)
	assert.InDelta(0, l, 1e-6)
}

func TestInputChannelSelection(t *testing.T) {
	p := allOff()
	p[Ladder].Enabled = true
	p[Ladder].P[WetDry] = 0
	bank := NewBank(p)
	c, _ := spyChain(bank)

	for ch, want := range map[int]float32{1: 0.1, 2: 0.2, 3: 0.3} {
		bank.SetInputChannel(Ladder, ch)
		l, _ := c.Process(0.1, 0.2, 0.3)
		assert.InDelta(t, want*busWeight, l, 1e-6, "input %d", ch)
	}
}

func TestSlotsSum(t *testing.T) {
	p := allOff()
	for _, k := range []Kind{Ladder, Soap, Chorus} {
		p[k].Enabled = true
		p[k].P[WetDry] = 0
	}
	c, spies := spyChain(NewBank(p))
	l, r := c.Process(1, 0, 0)
	assert.InDelta(t, 1.5, l, 1e-6)
	assert.InDelta(t, 1.5, r, 1e-6)
	assert.Equal(t, 1, spies[Chorus].processed)
	assert.Equal(t, 0, spies[Decimator].processed)
}

func TestCoefficientsOnlyRederivedOnChange(t *testing.T) {
	assert := assert.New(t)
	p := allOff()
	p[Soap].Enabled = true
	bank := NewBank(p)
	c, spies := spyChain(bank)

	for i := 0; i < 50; i++ {
		c.Process(0.1, 0, 0)
	}
	assert.Zero(spies[Soap].updates)

	bank.SetParam(Soap, 0, 0.9)
	for i := 0; i < 50; i++ {
		c.Process(0.1, 0, 0)
	}
	assert.Equal(1, spies[Soap].updates)
	assert.Equal(float32(0.9), spies[Soap].last[0])

	// lock and enable flags are not coefficients
	bank.SetLocked(Soap, 1, true)
	c.Process(0.1, 0, 0)
	assert.Equal(1, spies[Soap].updates)
}

func TestRealProcessorsStayFinite(t *testing.T) {
	const rate = 48000
	procs := map[string]Processor{
		"ladder":     newSVF(rate, false),
		"soap":       newSVF(rate, true),
		"decimator":  newDecimator(),
		"wavefolder": newWavefolder(),
		"chorus":     newChorus(rate),
	}
	extremes := [][4]float32{{0, 0, 0, 0}, {1, 1, 1, 1}, {0.5, 0.5, 0.5, 0.5}}
	for name, p := range procs {
		for _, e := range extremes {
			p.Update(e)
			for i := 0; i < 4096; i++ {
				x := float32(math.Sin(2 * math.Pi * 220 * float64(i) / rate))
				y := p.Process(x)
				require.False(t, math.IsNaN(float64(y)) || math.IsInf(float64(y), 0), "%s %v sample %d", name, e, i)
				require.LessOrEqual(t, math.Abs(float64(y)), 20.0, "%s %v sample %d", name, e, i)
			}
		}
	}
}

func TestLowpassPassesDC(t *testing.T) {
	f := newSVF(48000, false)
	f.Update([4]float32{0.1, 0, 0, 0})
	var y float32
	for i := 0; i < 48000; i++ {
		y = f.Process(0.2)
	}
	assert.InDelta(t, math.Tanh(0.2*(1+0.1)), y, 1e-3)
}

func TestSVFTaps(t *testing.T) {
	const rate = 48000
	f := NewSVF(2)
	f.SetFrequencyAndQ(rate, 1000, 0.707)

	var out SVFOutputs
	for i := 0; i < rate; i++ {
		out = f.ProcessSample(0.5, 1)
		// the taps always recombine into the input
		require.InDelta(t, 0.5, out.Lowpass+f.k*out.Bandpass+out.Highpass, 1e-4)
	}
	assert.InDelta(t, 0.5, out.Lowpass, 1e-3)
	assert.InDelta(t, 0, out.Bandpass, 1e-3)
	assert.InDelta(t, 0, out.Highpass, 1e-3)
	assert.Equal(t, []float32{0, 0}, []float32{f.ic1eq[0], f.ic2eq[0]}, "channels are independent")

	f.Reset()
	assert.Equal(t, []float32{0, 0}, f.ic1eq)
	assert.Equal(t, []float32{0, 0}, f.ic2eq)
}

func TestBandpassBlocksDCAndResonates(t *testing.T) {
	const rate = 48000
	peak := func(res float32) float64 {
		f := newSVF(rate, true)
		// 1 kHz center
		f.Update([4]float32{980.0 / 40000, res, 0, 0})
		var m float64
		for i := 0; i < rate/2; i++ {
			x := float32(0.1 * math.Sin(2*math.Pi*1000*float64(i)/rate))
			y := f.Process(x)
			if i > rate/4 {
				m = math.Max(m, math.Abs(float64(y)))
			}
		}
		return m
	}
	assert.Greater(t, peak(1), 2*peak(0))

	f := newSVF(rate, true)
	var y float32
	for i := 0; i < rate; i++ {
		y = f.Process(0.2)
	}
	assert.InDelta(t, 0, y, 1e-3)
}

func TestWavefolderStaysInRange(t *testing.T) {
	w := newWavefolder()
	w.Update([4]float32{1, 0.5, 0, 0})
	for x := float32(-3); x <= 3; x += 0.01 {
		y := w.Process(x)
		assert.True(t, y >= -1.0001 && y <= 1.0001, "fold(%v) = %v", x, y)
	}
}

func TestDefaultParams(t *testing.T) {
	assert := assert.New(t)
	p := DefaultParams()
	for i := range p {
		assert.Equal(i+2, p[i].MidiChannel)
		assert.Equal(1, p[i].InputChannel)
		assert.Equal(i == int(Ladder), p[i].Enabled)
		assert.Equal(float32(0.5), p[i].P[WetDry])
	}
	assert.Equal("Chorus", Chorus.String())
	assert.Equal("Unknown", NumSlots.String())
}

func TestBankClamps(t *testing.T) {
	assert := assert.New(t)
	b := NewBank(DefaultParams())
	b.SetParam(Chorus, 0, 3)
	assert.Equal(float32(1), b.Param(Chorus, 0))
	b.SetParam(Chorus, 0, -1)
	assert.Equal(float32(0), b.Param(Chorus, 0))
	b.SetInputChannel(Chorus, 9)
	assert.Equal(3, b.InputChannel(Chorus))
	b.SetMidiChannel(Chorus, 40)
	assert.Equal(16, b.MidiChannel(Chorus))

	// out of range slots and params are ignored
	b.SetParam(NumSlots, 0, 1)
	b.SetParam(Chorus, 4, 1)
	assert.Equal(Params{}, b.Get(Kind(-1)))
}
