// Package cli wires the subcommands of the llamadeck binary: serving a
// stack, building the backends from source, rendering configs and listing
// cloud GPU offers.
package cli

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Config carries the settings shared by every subcommand.
type Config struct {
	LogLvl string

	log zerolog.Logger
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newLogger(level string) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "llamadeck",
		Short:         "Provision and run a local llama.cpp inference stack",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl,
		"Log level: debug|info|warn|error (defaults LLAMADECK_LOG_LEVEL or info)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg.log = newLogger(cfg.LogLvl)
	}

	root.AddCommand(buildServeCmd(cfg))
	root.AddCommand(buildBuildCmd(cfg))
	root.AddCommand(buildGpusCmd(cfg))
	root.AddCommand(buildConfigCmd(cfg))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	cfg := &Config{LogLvl: envStr("LLAMADECK_LOG_LEVEL", "info")}
	return buildRootCmd(cfg).Execute()
}

// ExitCode maps an Execute error to a process exit code. A supervisor that
// exited nonzero propagates its own code; any other failure is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
