package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"localbiz/internal/adapters/observability"
	"localbiz/internal/shared"
)

var rootCmd = &cobra.Command{
	Use:           "localbiz-api",
	Short:         "Local business directory API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, _ []string) {
		// no subcommand: print help
		if err := cmd.Help(); err != nil {
			log.Error().Err(err).Msg("display help")
		}
	},
}

// loadConfig reads the environment and sets the global logger (console in dev, JSON otherwise).
func loadConfig() shared.Config {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	return cfg
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
