package cmd

import (
	"fmt"

	infraredis "github.com/jonesrussell/north-cloud/harvester/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/harvester/internal/queue"
	"github.com/spf13/cobra"
)

func newEnqueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "enqueue topic [topic...]",
		Short:   "Queue a run request for the worker",
		Args:    cobra.MinimumNArgs(1),
		Example: `  harvester enqueue tariffs "interest rates"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}

			client, err := infraredis.NewClient(cmd.Context(), deps.Config.Queue.Redis)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer func() { _ = client.Close() }()

			id, err := queue.NewProducer(client, deps.Config.Queue).Enqueue(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", id)
			return nil
		},
	}
}
