package cmd

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/harvester/internal/bootstrap"
	"github.com/spf13/cobra"
)

var errCronRequired = errors.New("--cron is required")

func newScheduleCommand() *cobra.Command {
	var (
		spec   string
		topics []string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule",
		Example: `  harvester schedule --cron "0 7 * * *" --topic tariffs
  harvester schedule --cron "@every 6h" --topic "ai chips"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				return errCronRequired
			}
			all := append(append([]string(nil), topics...), args...)
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				return bootstrap.RunSchedule(ctx, app.Runner, spec, all, app.Logger())
			})
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression or descriptor such as @hourly")
	cmd.Flags().StringArrayVarP(&topics, "topic", "t", nil, "topic to search for (repeatable)")

	return cmd
}
