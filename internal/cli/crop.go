package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/queue"
)

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Consume face tasks and store one face object per task",
	Long: `Polls TASK_QUEUE_URL and crops each task's box out of its source photo into
FACES_BUCKET. A task is acknowledged only after the face object is stored;
fetch and store failures leave it for redelivery.`,
	Args: cobra.NoArgs,
	RunE: runCrop,
}

func init() {
	cropCmd.Flags().Int("workers", 0, "Parallel crop workers (overrides CROP_WORKERS)")
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	if err := a.cfg.ValidatePipeline(); err != nil {
		return err
	}

	tasks, err := a.sqsQueue(a.cfg.TaskQueueURL)
	if err != nil {
		return err
	}

	workers := a.cfg.CropWorkers
	if w, _ := cmd.Flags().GetInt("workers"); w > 0 {
		workers = w
	}

	a.logger.Info("starting cropper",
		slog.String("faces_bucket", a.cfg.FacesBucket),
		slog.Int("workers", workers),
	)

	cropper := a.cropperStage()
	consumer := queue.NewConsumer(tasks, cropper.HandleMessage, workers, a.logger.With("component", "task_consumer"))
	consumer.Run(ctx)
	return nil
}
