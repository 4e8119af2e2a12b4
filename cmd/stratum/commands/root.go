package commands

import (
	"github.com/btcsuite/btclog"
	"github.com/roasbeef/stratum/actor"
	"github.com/roasbeef/stratum/internal/build"
	"github.com/spf13/cobra"
)

var (
	// logLevel controls the verbosity of runtime logging.
	logLevel string

	// logDir, when set, additionally writes logs to a rotating file in
	// the given directory.
	logDir string
)

// rootCmd is the base command for the demo CLI.
var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Stratum actor runtime demos",
	Long: `Stratum demo CLI runs small scenarios against the actor runtime:
supervision of a panicking actor, and lifecycle event subscriptions
through the system events channel.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "loglevel", "info",
		"Log level: trace, debug, info, warn, error, critical",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "logdir", "",
		"Directory for the rotating log file (console only if empty)",
	)
}

// setupLogging wires the runtime's logger to the console and, optionally,
// a rotating log file.
func setupLogging() error {
	level, _ := btclog.LevelFromString(logLevel)

	logger, err := build.NewLogger(actor.Subsystem, level, logDir)
	if err != nil {
		return err
	}

	actor.UseLogger(logger)

	return nil
}
