// Package cmd holds the vortexwatch command line entrypoints
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// appName is the name of the application used in CLI usage output and log context
const appName = "vortexwatch"

// k holds command line flags; file and environment configuration is loaded by the config package
var k *koanf.Koanf

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "privacy policy assessment service with alternative suggestions for unsafe sites",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadFlags(cmd)
	},
}

// Execute runs the root command until it returns or the process is signalled
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down gracefully...")
	}()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	k = koanf.New(".")
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().Bool("pretty", false, "enable pretty (human readable) logging output")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging output")
}

// initLogging applies the logging flags before any command runs
func initLogging() {
	if err := loadFlags(rootCmd); err != nil {
		log.Fatal().Err(err).Msg("error loading flags")
	}

	setupLogging(k.Bool("debug"), k.Bool("pretty"))
}

// loadFlags copies the command's flags into the koanf instance
func loadFlags(cmd *cobra.Command) error {
	return k.Load(posflag.Provider(cmd.Flags(), k.Delim(), k), nil)
}

// setupLogging configures the global zerolog logger
func setupLogging(debug, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("app", appName).Logger()
}
