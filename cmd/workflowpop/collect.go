package main

import (
	"github.com/spf13/cobra"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var regions []string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer ctx.close()
			if len(regions) == 0 {
				regions = ctx.config.Collector.Regions
			}

			collectorService, err := ctx.newCollector(cmd.Context(), ctx.statsCache(cmd.Context()))
			if err != nil {
				return err
			}

			result, err := collectorService.CollectAll(cmd.Context(), regions)
			if err != nil {
				return err
			}
			counts := result.Counts()
			ctx.logger.Info(cmd.Context(), "Run %s: collected %d records, saved %d, published %d, %d failed units",
				result.RunID, len(result.All()), result.Persisted.Saved, result.Persisted.Published, len(result.Failures))
			for source, n := range counts {
				ctx.logger.Debug(cmd.Context(), "  %s: %d", source, n)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "Regions to collect, e.g. US,IN (default from config)")
	return cmd
}
