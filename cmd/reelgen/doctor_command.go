package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelgen/internal/deps"
	"reelgen/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, credentials, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				fmt.Fprintln(out, renderStatusLine(result.Name, statusFor(result.Passed, false), result.Detail, colorize))
				if !result.Passed {
					failures++
				}
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := preflight.CheckSystemDeps(cfg)
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Command
					if version := deps.Version(cmd.Context(), status.Command); version != "" {
						detail += " (" + version + ")"
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, statusFor(status.Available, status.Optional), detail, colorize))
			}
			failures += len(deps.Missing(statuses))

			fmt.Fprintln(out)
			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

var errNotificationsDisabled = errors.New("notifications disabled: set notifications.ntfy_topic")

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return errNotificationsDisabled
			}
			if err := ctx.notifier(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
