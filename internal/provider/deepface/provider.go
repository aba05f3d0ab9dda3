package deepface

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
)

// Provider implements provider.FaceDetector using DeepFace API
type Provider struct {
	client *Client
}

var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// dataURI wraps photo bytes the way the DeepFace API expects base64 input
func dataURI(photo *imaging.Photo) string {
	format := photo.Format
	if format == "" {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(photo.Data)
}

// DetectFaces detects faces in the photo. DeepFace answers in pixel coordinates.
// With enforce_detection off, a photo without faces comes back as a single
// zero-confidence region covering the image, which is discarded here.
func (p *Provider) DetectFaces(ctx context.Context, photo *imaging.Photo) ([]provider.DetectedFace, error) {
	resp, err := p.client.Represent(ctx, dataURI(photo))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.FaceConfidence <= 0 || result.FaceConfidence < p.client.config.MinConfidence {
			continue
		}

		area := result.FacialArea
		box, ok := domain.BoundingBox{X: area.X, Y: area.Y, Width: area.W, Height: area.H}.Clamp(photo.Width(), photo.Height())
		if !ok {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			Box:        box,
			Confidence: result.FaceConfidence,
		})
	}

	return faces, nil
}
