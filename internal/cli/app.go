package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/audit"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/bot"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/config"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/face"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/index"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/queue"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/service"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

// app holds the per-process handles. Commands build what they need from it
// and pass it down explicitly.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	awsCfg aws.Config
	store  storage.ObjectStore
	audit  audit.Logger
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := storage.NewS3Store(awsCfg, storage.S3Config{
		Endpoint:     cfg.S3Endpoint,
		UsePathStyle: cfg.S3UsePathStyle,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		awsCfg: awsCfg,
		store:  store,
		audit:  audit.NewSlogLogger(logger),
	}, nil
}

func (a *app) sqsQueue(queueURL string) (*queue.SQSQueue, error) {
	qcfg := queue.DefaultSQSConfig(queueURL)
	qcfg.Endpoint = a.cfg.SQSEndpoint
	qcfg.MaxMessages = int32(a.cfg.QueueMaxMessages)
	qcfg.WaitSeconds = int32(a.cfg.QueueWaitSeconds)
	qcfg.VisibilityTimeout = a.cfg.VisibilityTimeout()

	q, err := queue.NewSQSQueue(a.awsCfg, qcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}
	return q, nil
}

func (a *app) detectorStage() (*service.DetectorStage, error) {
	if err := a.cfg.ValidatePipeline(); err != nil {
		return nil, err
	}

	tasks, err := a.sqsQueue(a.cfg.TaskQueueURL)
	if err != nil {
		return nil, err
	}

	detector, err := face.NewFaceDetector(a.cfg, a.awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}
	a.logger.Info("face detector ready", slog.String("provider", detector.Name()))

	stage := service.NewDetectorStage(a.store, detector, tasks, a.cfg.PhotoBucket, a.logger)
	return stage.WithAudit(a.audit), nil
}

func (a *app) cropperStage() *service.CropperStage {
	return service.NewCropperStage(a.store, a.cfg.PhotoBucket, a.cfg.FacesBucket, a.logger).
		WithQuality(a.cfg.JPEGQuality).
		WithAudit(a.audit)
}

func (a *app) telegramClient() (*telegram.Client, error) {
	if err := a.cfg.ValidateBot(); err != nil {
		return nil, err
	}
	tcfg := telegram.DefaultConfig(a.cfg.TelegramBotToken)
	if a.cfg.TelegramAPIURL != "" {
		tcfg.APIURL = a.cfg.TelegramAPIURL
	}
	return telegram.NewClient(tcfg)
}

func (a *app) conversation(transport bot.Transport) *bot.Conversation {
	photos := bot.NewStorePhotoSource(a.store, a.cfg.PhotoBucket, a.cfg.FacesBucket, a.cfg.PublicBaseURL)
	return bot.NewConversation(index.New(a.store, a.cfg.FacesBucket), transport, photos, a.logger).
		WithBotUsername(a.cfg.TelegramBotUsername).
		WithAudit(a.audit)
}
