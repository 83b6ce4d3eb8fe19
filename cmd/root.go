// Package cmd implements the harvester command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonesrussell/north-cloud/harvester/internal/bootstrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configKey = "config"
	debugKey  = "debug"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "harvester",
		Short: "Collect news articles for a list of topics",
		Long: `Harvester discovers recent articles for each topic through a news feed,
renders them in a headless browser, extracts the readable text and writes
one JSON document per run.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().String(configKey, "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().Bool(debugKey, false, "enable debug logging")
	_ = viper.BindPFlag(configKey, root.PersistentFlags().Lookup(configKey))
	_ = viper.BindPFlag(debugKey, root.PersistentFlags().Lookup(debugKey))

	root.AddCommand(
		newRunCommand(),
		newWorkerCommand(),
		newScheduleCommand(),
		newEnqueueCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "harvester version %s\n", version)
			},
		},
	)

	return root
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	_ = godotenv.Load()

	viper.SetEnvPrefix("HARVESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// loadDeps builds the command dependencies from the resolved flags.
func loadDeps() (*bootstrap.CommandDeps, error) {
	return bootstrap.NewCommandDeps(viper.GetString(configKey), viper.GetBool(debugKey))
}

// withApp creates the application, runs fn and releases the application.
func withApp(ctx context.Context, fn func(ctx context.Context, app *bootstrap.App) error) error {
	deps, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	app, err := bootstrap.NewApp(ctx, deps)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", closeErr)
		}
	}()

	return fn(ctx, app)
}
