package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/settings"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspects or resets the stored settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the stored settings",
	Long:  `Prints the stored settings record. A missing or rejected record prints the defaults and the reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := settings.LoadOrDefaults(settings.NewStore(settingsPath))
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "using defaults: %v\n", err)
		}
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Writes the factory settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := settings.NewStore(settingsPath)
		if err := store.Save(settings.Defaults()); err != nil {
			return err
		}
		logger.Info("settings reset", "path", settingsPath)
		return nil
	},
}
