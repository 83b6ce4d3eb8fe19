package cmd

import (
	"context"

	"github.com/jonesrussell/north-cloud/harvester/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume run requests from the Redis queue",
		Long: `Consume run requests from the Redis job list until interrupted. Health
and Prometheus endpoints are served on the metrics listen port.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				return bootstrap.RunWorker(ctx, app)
			})
		},
	}
}
