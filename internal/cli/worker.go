package cli

import (
	"time"

	"github.com/specialistvlad/layergen/internal/app"
	"github.com/spf13/cobra"
)

type workerOptions struct {
	workers         int
	runTimeout      time.Duration
	healthcheckPort int
	consumerGroup   string
}

func newCmdWorker(g *globalOptions) *cobra.Command {
	defaults := app.DefaultConfig()
	o := &workerOptions{}
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume run requests from Kafka until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.newApp(cmd.Context(), cmd, func(cfg *app.Config) {
				if cmd.Flags().Changed("workers") {
					cfg.Workers = o.workers
				}
				if cmd.Flags().Changed("run-timeout") {
					cfg.RunTimeout = o.runTimeout
				}
				if cmd.Flags().Changed("healthcheck-port") {
					cfg.HealthcheckPort = o.healthcheckPort
				}
				if cmd.Flags().Changed("consumer-group") {
					cfg.ConsumerGroup = o.consumerGroup
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunWorker(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&o.workers, "workers", defaults.Workers, "Number of runs executed concurrently")
	cmd.Flags().DurationVar(&o.runTimeout, "run-timeout", 0, "Cancel runs that take longer than this. 0 disables it.")
	cmd.Flags().IntVar(&o.healthcheckPort, "healthcheck-port", 0, "Port serving /health and /metrics. 0 is disabled.")
	cmd.Flags().StringVar(&o.consumerGroup, "consumer-group", defaults.ConsumerGroup, "Kafka consumer group")
	return cmd
}
