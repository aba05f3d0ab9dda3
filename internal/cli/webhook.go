package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Register the webhook URL with Telegram",
	Long: `Points the bot at <url>, normally https://<host>/webhook. When
TELEGRAM_WEBHOOK_SECRET is set it is registered as the secret token.`,
	Args: cobra.ExactArgs(1),
	RunE: runWebhookSet,
}

func init() {
	webhookCmd.AddCommand(webhookSetCmd)
	rootCmd.AddCommand(webhookCmd)
}

func runWebhookSet(cmd *cobra.Command, args []string) error {
	target, err := url.Parse(args[0])
	if err != nil || target.Scheme != "https" || target.Host == "" {
		return fmt.Errorf("webhook url must be an absolute https URL, got %q", args[0])
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	client, err := a.telegramClient()
	if err != nil {
		return err
	}
	if err := client.SetWebhook(ctx, target.String(), a.cfg.TelegramWebhookSecret); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", target)
	return nil
}
