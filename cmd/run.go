package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/engine"
	"github.com/eyebrain/Dream/host"
	"github.com/eyebrain/Dream/midimap"
	"github.com/eyebrain/Dream/webctl"
)

type liveFlags struct {
	midiUSB  string
	midiDIN  string
	useDIN   bool
	httpAddr string
	seed     int64
}

func (f *liveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.midiUSB, "midi-usb", "", "MIDI input name used as the USB transport")
	cmd.Flags().StringVar(&f.midiDIN, "midi-din", "", "MIDI input name used as the DIN transport")
	cmd.Flags().BoolVar(&f.useDIN, "din", false, "route the DIN transport instead of USB")
	cmd.Flags().StringVar(&f.httpAddr, "http", "", "serve the HTTP control surface on this address")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "jitter random seed")
}

var jackFlags liveFlags
var jackName string

func init() {
	rootCmd.AddCommand(runCmd)
	jackFlags.register(runCmd)
	runCmd.Flags().StringVar(&jackName, "name", "dream", "JACK client name")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the engine on JACK",
	Long:  `Runs the engine as a JACK client with ports in_1..in_4 and out_1..out_4. Input 4 is the clock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := loadController(true)
		j, err := host.OpenJack(jackName, c.State(), jackFlags.seed, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		return live(commandContext(cmd), c, &jackFlags, j.Start, j.Done())
	},
}

// live wires MIDI, the control loop and the optional HTTP surface around an
// audio backend, starts it and blocks until interrupted or the backend
// goes away.
func live(parent context.Context, c *engine.Controller, f *liveFlags, start func() error, done <-chan struct{}) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := c.State()
	c.SetMidiUSB(!f.useDIN)
	tr := host.NewTransports(midimap.NewRouter(st, c), st, logger)
	defer host.CloseDriver()
	if err := tr.Open(f.midiUSB, f.midiDIN); err != nil {
		return err
	}
	defer tr.Close()

	go c.Run(ctx)
	if f.httpAddr != "" {
		go func() {
			if err := webctl.New(c, logger).ListenAndServe(ctx, f.httpAddr); err != nil {
				logger.Error("http control stopped", "err", err)
			}
		}()
	}

	if err := start(); err != nil {
		return err
	}
	logger.Info("running", "buffer_s", st.BufferSeconds.Load(), "scale", st.ScaleType())

	select {
	case <-ctx.Done():
		logger.Info("interrupted")
	case <-done:
	}
	return nil
}
