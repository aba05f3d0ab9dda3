package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
)

// FaceDetector is the detection primitive used by the detector stage.
// Implementations are treated as pure functions: one photo in, zero or more boxes out.
type FaceDetector interface {
	// DetectFaces returns every face found in the photo, in photo pixel coordinates.
	// No faces is an empty slice, not an error.
	DetectFaces(ctx context.Context, photo *imaging.Photo) ([]DetectedFace, error)

	// Name identifies the provider in logs and audit events
	Name() string
}

// DetectedFace represents a detected face in the photo
type DetectedFace struct {
	Box        domain.BoundingBox `json:"box"`
	Confidence float64            `json:"confidence"` // 0..1
}
