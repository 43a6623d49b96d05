// Package commands holds the budgetbot CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/budgetbot/budget/app"
	"github.com/m3rciful/budgetbot/core/buildinfo"
	corecmd "github.com/m3rciful/budgetbot/core/cmd"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

const defaultConfigPath = "config.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered.
// Running it without a subcommand starts the bot.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "budgetbot",
		Short:   "Telegram front-end for a Google Sheets budget",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $CONFIG_PATH or ./config.yaml when present)")

	rootCmd.AddCommand(
		newRunCommand(&configPath),
		newSheetsCommand(&configPath),
		newVersionCommand(),
	)
	return rootCmd
}

func runnerOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return app.New(cfg)
		},
	}
}

func runBot(configPath string) error {
	return corecmd.Run(runnerOptions(configPath))
}

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(*configPath)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(buildinfo.String())
		},
	}
}
