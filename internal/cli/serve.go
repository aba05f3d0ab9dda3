package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/api"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Telegram webhook, the photo event trigger and the image routes",
	Long: `Starts the HTTP server.

Routes:
  POST /webhook        Telegram updates for the labeling conversation
  POST /events/photo   storage notifications for the detector (needs TASK_QUEUE_URL)
  GET  /faces/*        face objects, only when PUBLIC_BASE_URL is set
  GET  /originals/*    original photos, only when PUBLIC_BASE_URL is set
  GET  /health, /ready`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	logger := a.logger

	client, err := a.telegramClient()
	if err != nil {
		return err
	}

	deps := &api.Dependencies{
		Conversation:  a.conversation(client),
		Store:         a.store,
		PhotoBucket:   a.cfg.PhotoBucket,
		FacesBucket:   a.cfg.FacesBucket,
		WebhookSecret: a.cfg.TelegramWebhookSecret,
		ServeImages:   a.cfg.PublicBaseURL != "",
		Checks: map[string]handler.ReadinessCheck{
			"photo_bucket": bucketCheck(a.store, a.cfg.PhotoBucket),
			"faces_bucket": bucketCheck(a.store, a.cfg.FacesBucket),
		},
	}

	// the event trigger is optional; without a task queue there is nowhere to publish
	if a.cfg.TaskQueueURL != "" {
		detector, err := a.detectorStage()
		if err != nil {
			return err
		}
		deps.Detector = detector
	} else {
		logger.Warn("TASK_QUEUE_URL not set, /events/photo disabled")
	}

	port := a.cfg.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	logger.Info("starting facelabel server",
		slog.String("environment", a.cfg.Environment),
		slog.Int("port", port),
	)

	router := api.NewRouter(logger, deps)
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out", slog.Duration("timeout", shutdownTimeout))
	}

	logger.Info("server stopped")
	return nil
}

// bucketCheck reports a bucket as ready when it can be listed
func bucketCheck(store storage.ObjectStore, bucket string) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		if _, err := store.List(ctx, bucket); err != nil {
			return fmt.Errorf("list %s: %w", bucket, err)
		}
		return nil
	}
}
