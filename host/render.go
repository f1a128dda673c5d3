package host

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/eyebrain/Dream/engine"
)

// GateEvent changes gate Gate (0 record, 1 freeze) At seconds into the
// render.
type GateEvent struct {
	At   float64
	Gate int
	High bool
}

type RenderOptions struct {
	BlockSize int
	Seed      int64
	Gates     []GateEvent
	// pulse train on the clock input, 0 for none
	ClockBPM float64
	// seconds of silence appended to the input
	Tail float64
}

// Level is peak and RMS of one output channel.
type Level struct {
	Peak float64
	RMS  float64
}

type RenderResult struct {
	Out    [engine.Channels][]float32
	Levels [engine.Channels]Level
	Rate   int
	// first frame where output 1 is non-zero, -1 if never
	FirstSound int

	Orchestrator *engine.Orchestrator
}

// Render runs the engine offline over in. Inputs 1 and 2 get the left and
// right channels, input 3 their mix and input 4 the optional clock. The
// controller is ticked once per block so clock and gate-out behave as they
// do live.
func Render(ctx context.Context, c *engine.Controller, in Stereo, opts RenderOptions) (*RenderResult, error) {
	if in.Rate <= 0 {
		return nil, errors.New("render: input has no sample rate")
	}
	block := opts.BlockSize
	if block <= 0 {
		block = 256
	}
	total := in.Len() + int(opts.Tail*float64(in.Rate))

	gates := append([]GateEvent(nil), opts.Gates...)
	sort.SliceStable(gates, func(i, j int) bool { return gates[i].At < gates[j].At })
	for _, g := range gates {
		if g.Gate < 0 || g.Gate > 1 {
			return nil, errors.Errorf("render: no gate %d", g.Gate)
		}
	}

	res := &RenderResult{
		Rate:         in.Rate,
		FirstSound:   -1,
		Orchestrator: engine.New(c.State(), in.Rate, opts.Seed),
	}
	for ch := range res.Out {
		res.Out[ch] = make([]float32, total)
	}

	inBuf := make([][]float32, engine.Channels)
	for ch := range inBuf {
		inBuf[ch] = make([]float32, block)
	}
	inView := make([][]float32, engine.Channels)
	outView := make([][]float32, engine.Channels)

	period := 0
	if opts.ClockBPM > 0 {
		period = beatFrames(opts.ClockBPM, in.Rate)
	}
	pulse := engine.GatePulseMs * in.Rate / 1000
	if pulse < 1 {
		pulse = 1
	}

	next := 0
	for off := 0; off < total; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for next < len(gates) && frameAt(gates[next].At, in.Rate) <= off {
			c.SetGate(gates[next].Gate, gates[next].High)
			next++
		}

		n := total - off
		if n > block {
			n = block
		}
		// split blocks on gate events so they land on their frame
		if next < len(gates) {
			if f := frameAt(gates[next].At, in.Rate); f-off < n {
				n = f - off
			}
		}

		c.Tick(int64(off) * 1000 / int64(in.Rate))
		for ch := range inBuf {
			inView[ch] = inBuf[ch][:n]
		}
		for i := 0; i < n; i++ {
			f := off + i
			var l, r, clock float32
			if f < in.Len() {
				l, r = in.L[f], in.R[f]
			}
			if period > 0 && f%period < pulse {
				clock = 1
			}
			inView[0][i], inView[1][i], inView[2][i], inView[3][i] = l, r, (l+r)/2, clock
		}
		for ch := range outView {
			outView[ch] = res.Out[ch][off : off+n]
		}
		res.Orchestrator.Process(inView, outView)
		off += n
	}

	for ch := range res.Out {
		res.Levels[ch] = levelOf(res.Out[ch])
	}
	for i, v := range res.Out[0] {
		if v != 0 {
			res.FirstSound = i
			break
		}
	}
	return res, nil
}

// WriteOutputs writes outputs 1/2 to mainPath and 3/4 to monitorPath.
// Either path may be empty.
func (r *RenderResult) WriteOutputs(mainPath, monitorPath string) error {
	if mainPath != "" {
		if err := WriteWav(mainPath, r.Out[0], r.Out[1], r.Rate); err != nil {
			return err
		}
	}
	if monitorPath != "" {
		if err := WriteWav(monitorPath, r.Out[2], r.Out[3], r.Rate); err != nil {
			return err
		}
	}
	return nil
}

func frameAt(sec float64, rate int) int {
	if sec <= 0 {
		return 0
	}
	return int(math.Round(sec * float64(rate)))
}

// beatFrames is the length of one beat at bpm, rounded to whole frames.
func beatFrames(bpm float64, rate int) int {
	beat := float64(rate) / (bpm / 60)
	return int(math.Max(1, math.Round(beat)))
}

func levelOf(ch []float32) Level {
	if len(ch) == 0 {
		return Level{}
	}
	x := make([]float64, len(ch))
	for i, v := range ch {
		x[i] = float64(v)
	}
	return Level{
		Peak: math.Max(floats.Max(x), -floats.Min(x)),
		RMS:  floats.Norm(x, 2) / math.Sqrt(float64(len(x))),
	}
}
