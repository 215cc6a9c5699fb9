package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/thep200/workflow-popularity/api"
	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/scheduler"
	"github.com/thep200/workflow-popularity/internal/server"
	"github.com/thep200/workflow-popularity/internal/service"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the daily collection schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				ctx.config.Server.Port = port
			}
			return runServe(cmd.Context(), ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config)")
	return cmd
}

func runServe(ctx context.Context, c *commandContext) error {
	defer c.close()
	config, logger := c.config, c.logger

	if config.App.DevelopmentMode {
		logger.Info(ctx, "Starting in development mode...")
	} else {
		logger.Info(ctx, "Starting in production mode...")
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	statsCache := c.statsCache(ctx)
	collectorService, err := c.newCollector(ctx, statsCache)
	if err != nil {
		return err
	}

	c.loader.RegisterConfigChangeCallback(func(*cfg.Config) {
		logger.Notice(context.Background(), "Configuration file changed; restart to apply it")
	})

	collectorAPI := api.NewCollectorAPI(logger, collectorService, config.Collector.Regions)
	handler := server.NewHandler(logger, service.NewQuery(logger, store, statsCache), collectorAPI)
	srv := server.NewServer(logger, config, handler, config.Server.Port)

	g, gCtx := errgroup.WithContext(ctx)

	var sched *scheduler.Scheduler
	if config.Schedule.Enabled {
		sched, err = scheduler.New(logger, config, collectorService)
		if err != nil {
			return err
		}
		if err := sched.Start(gCtx); err != nil {
			return err
		}
	}

	g.Go(srv.Start)

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	err = g.Wait()

	if sched != nil {
		sched.Stop()
	}
	collectorAPI.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info(context.Background(), "Server shut down gracefully")
	return nil
}
