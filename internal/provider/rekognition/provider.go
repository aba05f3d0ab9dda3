package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
)

// Provider implements the provider.FaceDetector interface using AWS Rekognition
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.FaceDetector interface at compile time
var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider creates a new Rekognition detector
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &Provider{client: client}, nil
}

// NewProviderWithClient creates a detector around an existing client
func NewProviderWithClient(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return "rekognition"
}

// imageBytes returns bytes Rekognition accepts, re-encoding oversized or
// non JPEG/PNG photos from the decoded pixels
func (p *Provider) imageBytes(photo *imaging.Photo) ([]byte, error) {
	if len(photo.Data) > 0 && len(photo.Data) <= maxImageSize && (photo.Format == "jpeg" || photo.Format == "png") {
		return photo.Data, nil
	}

	data, err := imaging.EncodeJPEG(photo.Image, p.client.config.ReencodeQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(data), maxImageSize)
	}
	return data, nil
}

// DetectFaces detects faces using AWS Rekognition DetectFaces API.
// Rekognition reports boxes as ratios of the image size; they are converted
// to pixels and clamped, since Left/Top can be negative for faces on the edge.
func (p *Provider) DetectFaces(ctx context.Context, photo *imaging.Photo) ([]provider.DetectedFace, error) {
	data, err := p.imageBytes(photo)
	if err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: data,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", classifyError(err))
	}

	w, h := photo.Width(), photo.Height()
	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}

		confidence := 0.0
		if detail.Confidence != nil {
			confidence = float64(*detail.Confidence) / 100.0
		}
		if confidence < p.client.config.MinConfidence {
			continue
		}

		box, ok := toPixels(detail.BoundingBox, w, h)
		if !ok {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			Box:        box,
			Confidence: confidence,
		})
	}

	return faces, nil
}

// toPixels converts a ratio box into a pixel box inside a w x h image
func toPixels(bb *types.BoundingBox, w, h int) (domain.BoundingBox, bool) {
	ratio := func(v *float32) float64 {
		if v == nil {
			return 0
		}
		return float64(*v)
	}

	x0 := int(math.Round(ratio(bb.Left) * float64(w)))
	y0 := int(math.Round(ratio(bb.Top) * float64(h)))
	x1 := int(math.Round((ratio(bb.Left) + ratio(bb.Width)) * float64(w)))
	y1 := int(math.Round((ratio(bb.Top) + ratio(bb.Height)) * float64(h)))

	box := domain.BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	return box.Clamp(w, h)
}
