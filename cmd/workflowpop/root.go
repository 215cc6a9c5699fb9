package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	ctx := newCommandContext(&configPath)

	rootCmd := &cobra.Command{
		Use:           "workflowpop",
		Short:         "Collect and serve workflow popularity signals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config-dir", "cfg/yaml", "Directory holding mode.yaml")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newCollectCommand(ctx))
	rootCmd.AddCommand(newConsumeCommand(ctx))

	return rootCmd
}
