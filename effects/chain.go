package effects

// slot mix weight on each side of the stereo bus
const busWeight = 0.5

// Chain runs the five slots against the shared Bank. It belongs to the
// audio callback: Process neither blocks nor allocates.
type Chain struct {
	bank  *Bank
	procs [NumSlots]Processor
	seen  [NumSlots]uint32
	cur   [NumSlots][4]float32
}

func NewChain(bank *Bank, sampleRate float64) *Chain {
	c := &Chain{bank: bank}
	c.procs[Ladder] = newSVF(sampleRate, false)
	c.procs[Soap] = newSVF(sampleRate, true)
	c.procs[Decimator] = newDecimator()
	c.procs[Wavefolder] = newWavefolder()
	c.procs[Chorus] = newChorus(sampleRate)
	for k := range c.procs {
		c.load(Kind(k))
	}
	return c
}

func (c *Chain) load(k Kind) {
	c.seen[k] = c.bank.generation(k)
	s := &c.bank.slots[k]
	for i := range c.cur[k] {
		c.cur[k][i] = s.p[i].Load()
	}
	c.procs[k].Update(c.cur[k])
}

// refresh pulls slot k's parameters if they moved since the last look.
func (c *Chain) refresh(k Kind) {
	if c.bank.generation(k) != c.seen[k] {
		c.load(k)
	}
}

// Process runs every enabled slot on its selected input and returns the
// stereo effect bus. Disabled slots are skipped entirely.
func (c *Chain) Process(in1, in2, in3 float32) (left, right float32) {
	for k := range c.procs {
		s := &c.bank.slots[k]
		if !s.enabled.Load() {
			continue
		}
		c.refresh(Kind(k))

		var x float32
		switch s.inputCh.Load() {
		case 1:
			x = in1
		case 2:
			x = in2
		case 3:
			x = in3
		}
		wet := c.procs[k].Process(x)
		mix := c.cur[k][WetDry]
		out := x*(1-mix) + wet*mix

		left += out * busWeight
		right += out * busWeight
	}
	return left, right
}
