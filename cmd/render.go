package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/host"
)

var renderOpts struct {
	out       string
	monitor   string
	recordEnd float64
	freezeAt  float64
	freezeLen float64
	clockBPM  float64
	tail      float64
	knobs     []float32
	exportDir string
	seed      int64
	block     int
}

func init() {
	rootCmd.AddCommand(renderCmd)
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.out, "out", "o", "out.wav", "outputs 1/2 as a stereo WAV")
	f.StringVar(&renderOpts.monitor, "monitor", "", "outputs 3/4 as a stereo WAV")
	f.Float64Var(&renderOpts.recordEnd, "record", 0, "seconds the record gate stays high, 0 for the buffer length")
	f.Float64Var(&renderOpts.freezeAt, "freeze-at", -1, "seconds at which the freeze gate goes high, negative for none")
	f.Float64Var(&renderOpts.freezeLen, "freeze-for", 2, "seconds the freeze gate stays high")
	f.Float64Var(&renderOpts.clockBPM, "clock-bpm", 0, "clock pulses on input 4")
	f.Float64Var(&renderOpts.tail, "tail", 2, "seconds rendered after the input ends")
	f.Float32SliceVar(&renderOpts.knobs, "knobs", nil, "knob positions 1-4, 0..1")
	f.StringVar(&renderOpts.exportDir, "export", "", "also write both loop buffers to this directory")
	f.Int64Var(&renderOpts.seed, "seed", 1, "jitter random seed")
	f.IntVar(&renderOpts.block, "block", 256, "frames per engine block")
}

var renderCmd = &cobra.Command{
	Use:   "render <input.wav|input.mp3>",
	Short: "Renders a file through the engine offline",
	Long: `Renders a file through the engine offline. The record gate is held from
the start, the freeze gate can be scripted, and the four outputs are written
as two stereo WAV files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := loadController(false)
		st := c.State()
		for i, k := range renderOpts.knobs {
			c.SetKnob(i, k)
		}

		in, err := host.LoadAudio(args[0], sampleRate)
		if err != nil {
			return err
		}

		recordEnd := renderOpts.recordEnd
		if recordEnd <= 0 {
			recordEnd = float64(st.BufferSeconds.Load())
		}
		gates := []host.GateEvent{{At: 0, Gate: 0, High: true}, {At: recordEnd, Gate: 0, High: false}}
		if renderOpts.freezeAt >= 0 {
			gates = append(gates,
				host.GateEvent{At: renderOpts.freezeAt, Gate: 1, High: true},
				host.GateEvent{At: renderOpts.freezeAt + renderOpts.freezeLen, Gate: 1, High: false})
		}

		res, err := host.Render(commandContext(cmd), c, in, host.RenderOptions{
			BlockSize: renderOpts.block,
			Seed:      renderOpts.seed,
			Gates:     gates,
			ClockBPM:  renderOpts.clockBPM,
			Tail:      renderOpts.tail,
		})
		if err != nil {
			return errors.Wrap(err, "render")
		}
		if err := res.WriteOutputs(renderOpts.out, renderOpts.monitor); err != nil {
			return err
		}

		if dir := renderOpts.exportDir; dir != "" {
			o := res.Orchestrator
			if err := host.ExportBuffer(filepath.Join(dir, "buffer_a.wav"), o.BufferA().Snapshot(res.Rate)); err != nil {
				return err
			}
			if o.BufferB().GetCurrentRecordedSize() > 0 {
				if err := host.ExportBuffer(filepath.Join(dir, "buffer_b.wav"), o.BufferB().Snapshot(res.Rate)); err != nil {
					return err
				}
			}
		}

		w := cmd.OutOrStdout()
		frames := len(res.Out[0])
		fmt.Fprintf(w, "%d frames at %d Hz (%.2fs)\n", frames, res.Rate, float64(frames)/float64(res.Rate))
		if res.FirstSound >= 0 {
			fmt.Fprintf(w, "first sound at %.3fs\n", float64(res.FirstSound)/float64(res.Rate))
		}
		for ch, l := range res.Levels {
			fmt.Fprintf(w, "out_%d peak %.4f rms %.4f\n", ch+1, l.Peak, l.RMS)
		}
		return nil
	},
}
