package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
)

const (
	photoBucket = "photos"
	facesBucket = "faces"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, v any) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

// taskRecorder keeps published tasks in memory as a queue would
type taskRecorder struct {
	mu    sync.Mutex
	tasks []domain.FaceTask
}

func (r *taskRecorder) Publish(_ context.Context, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, v.(domain.FaceTask))
	return nil
}

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Name() string {
	return "mock-detector"
}

func (m *MockDetector) DetectFaces(ctx context.Context, photo *imaging.Photo) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, photo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

// ackCounter counts acknowledgements of a single delivery
type ackCounter struct {
	mu    sync.Mutex
	count int
	err   error
}

func (a *ackCounter) Ack(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count++
	return a.err
}

func (a *ackCounter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func mockAnyPhoto() any {
	return mock.AnythingOfType("*imaging.Photo")
}

func twoFaces() []provider.DetectedFace {
	return []provider.DetectedFace{
		{Box: domain.BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}, Confidence: 0.99},
		{Box: domain.BoundingBox{X: 200, Y: 10, Width: 50, Height: 50}, Confidence: 0.99},
	}
}
