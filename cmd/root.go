package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/eyebrain/Dream/engine"
	"github.com/eyebrain/Dream/settings"
)

var (
	settingsPath string
	sampleRate   int
	debug        bool

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dream",
	Short: "Granular looper",
	Long: `Granular looper: records live input into a windowed loop and a
freeze buffer, plays them back through a jittered grain window and mixes
the result with a five slot effect chain.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", defaultSettingsPath(), "settings record file")
	rootCmd.PersistentFlags().IntVar(&sampleRate, "sample-rate", engine.DefaultSampleRate, "sample rate where the backend lets us pick")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dream-settings.bin"
	}
	return filepath.Join(dir, "dream", "settings.bin")
}

func setupLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

// loadController restores the persisted record, falling back to defaults,
// and wires a controller. With persist set, edits are written back to the
// same file.
func loadController(persist bool) *engine.Controller {
	store := settings.NewStore(settingsPath)
	rec, err := settings.LoadOrDefaults(store)
	switch {
	case err == nil:
		logger.Debug("settings loaded", "path", settingsPath)
	case os.IsNotExist(errors.Cause(err)):
		logger.Info("no settings yet, using defaults", "path", settingsPath)
	default:
		logger.Warn("settings rejected, using defaults", "path", settingsPath, "err", err)
	}
	var flash settings.Flash
	if persist {
		flash = store
	}
	return engine.NewController(engine.NewState(rec), flash, logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
