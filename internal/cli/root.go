// Package cli implements the polywarp command line.
//
// Each subcommand lives in its own file. This file holds the root command,
// the global flags and the shared helpers that turn the loaded configuration
// into a logger and a progress sink.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"polywarp/internal/logger"
	"polywarp/pkg/config"
	"polywarp/pkg/progress"
)

// Global flags, bound to persistent flags on the root command.
var (
	// configPath is the YAML or JSONC configuration file.
	configPath string

	// jsonOutput switches command results and errors to JSON.
	jsonOutput bool

	// verbose lowers the log level to debug.
	verbose bool
)

// Build information, injected from main.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polywarp",
		Short: "Polynomial image warping from control points",
		Long: `polywarp fits a 2D polynomial warp to pairs of control points and
resamples rasters through it, correcting distortion or registering one
image onto the frame of another.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "polywarp.yaml", "Configuration file (YAML, or JSON with comments)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewFitCommand())
	rootCmd.AddCommand(NewResampleCommand())
	rootCmd.AddCommand(NewRegisterCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs rootCmd until it finishes or SIGINT/SIGTERM arrives, then
// exits with the code matching the error.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(int(exitCodeFor(err)))
	}
}

// printError writes err as text, or as a JSON object when --json is set.
func printError(w io.Writer, err error) {
	if jsonOutput {
		obj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": err.Error(),
				"code":    int(exitCodeFor(err)),
			},
		}
		data, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// environment is what every subcommand needs after reading the global flags.
type environment struct {
	cfg  *config.Config
	log  *logger.ZerologAdapter
	sink progress.Sink
}

// loadEnvironment reads the configuration and builds the logger and
// progress sink it selects. Logs and progress go to errOut.
func loadEnvironment(errOut io.Writer) (*environment, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.Output.LogLevel)
	if verbose {
		level = zerolog.DebugLevel
	}
	var log *logger.ZerologAdapter
	if f, ok := errOut.(*os.File); ok && !jsonOutput {
		log = logger.NewConsoleLogger(f, level)
	} else {
		log = logger.NewZerolog(errOut, level)
	}

	var sink progress.Sink
	switch cfg.Output.Progress {
	case config.ProgressBar:
		sink = progress.NewBar(errOut)
	case config.ProgressLog:
		sink = progress.NewLogger(log.Zerolog("progress"))
	default:
		sink = progress.Discard
	}

	log.Debug("cli", "Configuration loaded", map[string]interface{}{
		"config":   configPath,
		"progress": cfg.Output.Progress,
		"degree":   cfg.Fit.Degree,
	})
	return &environment{cfg: cfg, log: log, sink: sink}, nil
}
