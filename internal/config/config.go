package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// AWS / S3-compatible services
	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	SQSEndpoint    string `envconfig:"SQS_ENDPOINT"`

	// Storage
	PhotoBucket string `envconfig:"PHOTO_BUCKET" required:"true"`
	FacesBucket string `envconfig:"FACES_BUCKET" required:"true"`

	// Queue
	TaskQueueURL           string `envconfig:"TASK_QUEUE_URL"`
	PhotoEventsQueueURL    string `envconfig:"PHOTO_EVENTS_QUEUE_URL"`
	QueueMaxMessages       int    `envconfig:"QUEUE_MAX_MESSAGES" default:"10"`
	QueueWaitSeconds       int    `envconfig:"QUEUE_WAIT_SECONDS" default:"20"`
	QueueVisibilityTimeout int    `envconfig:"QUEUE_VISIBILITY_TIMEOUT" default:"0"`
	CropWorkers            int    `envconfig:"CROP_WORKERS" default:"1"`

	// Detector
	DetectorType          string  `envconfig:"DETECTOR_TYPE" default:"rekognition"`
	DeepFaceURL           string  `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DetectorMinConfidence float64 `envconfig:"DETECTOR_MIN_CONFIDENCE" default:"0"`
	JPEGQuality           int     `envconfig:"JPEG_QUALITY" default:"90"`

	// Telegram
	TelegramBotToken      string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramBotUsername   string `envconfig:"TELEGRAM_BOT_USERNAME"`
	TelegramAPIURL        string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	TelegramWebhookSecret string `envconfig:"TELEGRAM_WEBHOOK_SECRET"`
	PublicBaseURL         string `envconfig:"PUBLIC_BASE_URL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.QueueMaxMessages < 1 || c.QueueMaxMessages > 10 {
		return fmt.Errorf("QUEUE_MAX_MESSAGES must be between 1 and 10, got %d", c.QueueMaxMessages)
	}
	if c.QueueWaitSeconds < 0 || c.QueueWaitSeconds > 20 {
		return fmt.Errorf("QUEUE_WAIT_SECONDS must be between 0 and 20, got %d", c.QueueWaitSeconds)
	}
	if c.CropWorkers < 1 {
		return fmt.Errorf("CROP_WORKERS must be positive, got %d", c.CropWorkers)
	}
	if c.DetectorMinConfidence < 0 || c.DetectorMinConfidence > 1 {
		return fmt.Errorf("DETECTOR_MIN_CONFIDENCE must be between 0 and 1, got %v", c.DetectorMinConfidence)
	}
	switch c.DetectorType {
	case "rekognition", "deepface", "mock":
	default:
		return fmt.Errorf("unknown DETECTOR_TYPE %q (supported: rekognition, deepface, mock)", c.DetectorType)
	}
	return nil
}

// ValidatePipeline checks settings needed by the detector and cropper stages
func (c *Config) ValidatePipeline() error {
	if c.TaskQueueURL == "" {
		return errors.New("TASK_QUEUE_URL is required")
	}
	return nil
}

// ValidateBot checks settings needed by the webhook server
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// VisibilityTimeout returns the per-receive visibility timeout, zero meaning queue default
func (c *Config) VisibilityTimeout() time.Duration {
	return time.Duration(c.QueueVisibilityTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
