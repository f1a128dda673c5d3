package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/host"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI inputs",
	Long:  `Lists the MIDI input names accepted by --midi-usb and --midi-din.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer host.CloseDriver()
		names := host.InPorts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no MIDI inputs")
			return
		}
		for i, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, n)
		}
	},
}
