package face

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/config"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider/rekognition"
)

// ProviderType defines supported face detection provider types
type ProviderType string

const (
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud, for prod)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeDeepFace is the DeepFace provider (self-hosted)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeMock returns a fixed centered face, for local development
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceDetector creates a FaceDetector instance based on configuration.
// awsCfg is only used by the Rekognition provider.
//
// Environment variables:
//   - DETECTOR_TYPE: "rekognition", "deepface" or "mock" (default: "rekognition")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - DETECTOR_MIN_CONFIDENCE: faces below this confidence are dropped
//   - AWS_REGION and the AWS SDK credential chain for Rekognition
func NewFaceDetector(cfg *config.Config, awsCfg aws.Config) (provider.FaceDetector, error) {
	switch ProviderType(cfg.DetectorType) {
	case ProviderTypeRekognition, "":
		return createRekognitionProvider(cfg, awsCfg), nil

	case ProviderTypeDeepFace:
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown detector type: %s (supported: %s, %s, %s)",
			cfg.DetectorType, ProviderTypeRekognition, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(cfg *config.Config, awsCfg aws.Config) provider.FaceDetector {
	rekogConfig := rekognition.DefaultConfig()
	rekogConfig.Region = cfg.AWSRegion
	rekogConfig.MinConfidence = cfg.DetectorMinConfidence

	return rekognition.NewProviderWithClient(rekognition.NewClientFromConfig(awsCfg, rekogConfig))
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.FaceDetector {
	deepfaceConfig := deepface.DefaultConfig()
	deepfaceConfig.MinConfidence = cfg.DetectorMinConfidence
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}

	return deepface.NewProvider(deepfaceConfig)
}
