package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relcut/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the Discord webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service := notify.NewService(cfg)
			if !notify.Enabled(service) {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled; set DISCORD_WEBHOOK to enable them")
				return nil
			}
			if err := service.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
