package cli

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/queue"
)

var detectCmd = &cobra.Command{
	Use:   "detect [photo-key]",
	Short: "Detect faces in a photo and queue one crop task per face",
	Long: `With a key, runs detection once on that object of PHOTO_BUCKET and prints the
result as JSON. With --events, consumes storage notifications from
PHOTO_EVENTS_QUEUE_URL until interrupted.`,
	Example: `  facelabel detect 2024/p1.jpg
  facelabel detect --events`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Bool("events", false, "Consume photo events from PHOTO_EVENTS_QUEUE_URL")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	events, _ := cmd.Flags().GetBool("events")
	if events == (len(args) == 1) {
		return errors.New("give either a photo key or --events")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	stage, err := a.detectorStage()
	if err != nil {
		return err
	}

	if !events {
		result, err := stage.OnPhotoUploaded(ctx, a.cfg.PhotoBucket, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if a.cfg.PhotoEventsQueueURL == "" {
		return errors.New("PHOTO_EVENTS_QUEUE_URL is required with --events")
	}
	photoEvents, err := a.sqsQueue(a.cfg.PhotoEventsQueueURL)
	if err != nil {
		return err
	}

	a.logger.Info("consuming photo events", "photo_bucket", a.cfg.PhotoBucket)
	consumer := queue.NewConsumer(photoEvents, stage.HandleMessage, 1, a.logger.With("component", "event_consumer"))
	consumer.Run(ctx)
	return nil
}
