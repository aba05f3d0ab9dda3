package mock

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
)

// Provider implementa provider.FaceDetector para testes e desenvolvimento
type Provider struct {
	boxes []domain.BoundingBox
}

// New cria um detector que devolve sempre as mesmas caixas.
// Sem caixas, devolve uma face no centro da imagem.
func New(boxes ...domain.BoundingBox) *Provider {
	return &Provider{boxes: boxes}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, photo *imaging.Photo) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(p.boxes) == 0 {
		w, h := photo.Width(), photo.Height()
		if w < 2 || h < 2 {
			return []provider.DetectedFace{}, nil
		}
		return []provider.DetectedFace{{
			Box:        domain.BoundingBox{X: w / 4, Y: h / 4, Width: w / 2, Height: h / 2},
			Confidence: 0.99,
		}}, nil
	}

	faces := make([]provider.DetectedFace, 0, len(p.boxes))
	for _, box := range p.boxes {
		faces = append(faces, provider.DetectedFace{Box: box, Confidence: 0.99})
	}
	return faces, nil
}

var _ provider.FaceDetector = (*Provider)(nil)
