package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(nil)
}

// newRootCommandWith builds the command tree around ctx, or a fresh context
// bound to the --config flag when ctx is nil.
func newRootCommandWith(ctx *commandContext) *cobra.Command {
	var configFlag string
	if ctx == nil {
		ctx = newCommandContext(&configFlag)
	} else {
		ctx.configFlag = &configFlag
	}

	rootCmd := &cobra.Command{
		Use:           "reelgen",
		Short:         "Turn business photos into narrated short-form reels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newTaskCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
