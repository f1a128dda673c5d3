package cmd

import (
	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/host"
)

var paFlags liveFlags
var paFrames int

func init() {
	rootCmd.AddCommand(portaudioCmd)
	paFlags.register(portaudioCmd)
	portaudioCmd.Flags().IntVar(&paFrames, "frames", 256, "frames per buffer")
}

var portaudioCmd = &cobra.Command{
	Use:   "portaudio",
	Short: "Runs the engine on the default PortAudio device",
	Long:  `Runs the engine on the default PortAudio device with four inputs and four outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := loadController(true)
		p, err := host.OpenPortAudio(c.State(), sampleRate, paFrames, paFlags.seed, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		return live(commandContext(cmd), c, &paFlags, p.Start, nil)
	},
}
