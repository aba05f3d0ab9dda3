package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied         = "AccessDeniedException"
	errCodeInvalidImageFormat   = "InvalidImageFormatException"
	errCodeImageTooLarge        = "ImageTooLargeException"
	errCodeInvalidParameter     = "InvalidParameterException"
	errCodeThroughputExceeded   = "ProvisionedThroughputExceededException"
	errCodeThrottling           = "ThrottlingException"
	errCodeUnrecognizedClientID = "UnrecognizedClientException"
)

// RekognitionAPI is the subset of the Rekognition client the detector calls
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewClientFromConfig(awsCfg, cfg), nil
}

// NewClientFromConfig builds a client from an already loaded AWS config
func NewClientFromConfig(awsCfg aws.Config, cfg Config) *Client {
	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}
}

// classifyError maps Rekognition API error codes onto package errors
func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied, errCodeUnrecognizedClientID:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
	case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
		return fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
	case errCodeThroughputExceeded, errCodeThrottling:
		return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
	}
	return err
}
