package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/audit"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/provider"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/queue"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

// DetectResult summarises one processed photo
type DetectResult struct {
	Key       string `json:"key"`
	Faces     int    `json:"faces"`
	Published int    `json:"published"`
	Error     string `json:"error,omitempty"`
}

// DetectorStage turns an uploaded photo into one FaceTask per detected face
type DetectorStage struct {
	store       storage.ObjectStore
	detector    provider.FaceDetector
	publisher   queue.Publisher
	photoBucket string
	audit       audit.Logger
	logger      *slog.Logger
}

func NewDetectorStage(
	store storage.ObjectStore,
	detector provider.FaceDetector,
	publisher queue.Publisher,
	photoBucket string,
	logger *slog.Logger,
) *DetectorStage {
	return &DetectorStage{
		store:       store,
		detector:    detector,
		publisher:   publisher,
		photoBucket: photoBucket,
		audit:       &audit.NoOpLogger{},
		logger:      logger.With("component", "detector"),
	}
}

func (s *DetectorStage) WithAudit(logger audit.Logger) *DetectorStage {
	s.audit = logger
	return s
}

// OnPhotoUploaded detects faces in bucket/key and publishes a task per face.
// An empty bucket means the photo bucket. Tasks only name a key, so a photo
// from any other bucket could not be cropped and is refused.
//
// The returned error covers fetch, decode and detection. Publish failures are
// per box: they are logged and the remaining boxes are still attempted.
func (s *DetectorStage) OnPhotoUploaded(ctx context.Context, bucket, key string) (*DetectResult, error) {
	if bucket == "" {
		bucket = s.photoBucket
	}
	result := &DetectResult{Key: key}
	log := s.logger.With("bucket", bucket, "key", key)

	if bucket != s.photoBucket {
		log.Warn("ignoring photo outside the photo bucket", "photo_bucket", s.photoBucket)
		return result, fmt.Errorf("photo %s/%s: bucket is not %s", bucket, key, s.photoBucket)
	}

	obj, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		log.Error("failed to fetch photo, dropping event", "error", err)
		return result, fmt.Errorf("fetch photo %s: %w", key, err)
	}

	photo, err := imaging.Decode(obj.Data)
	if err != nil {
		log.Error("failed to decode photo, dropping event", "error", err)
		return result, fmt.Errorf("decode photo %s: %w", key, err)
	}

	faces, err := s.detector.DetectFaces(ctx, photo)
	if err != nil {
		s.logAudit(ctx, key, 0, err)
		log.Error("face detection failed, dropping event", "detector", s.detector.Name(), "error", err)
		return result, fmt.Errorf("detect faces %s: %w", key, err)
	}
	result.Faces = len(faces)

	if len(faces) == 0 {
		s.logAudit(ctx, key, 0, nil)
		log.Info("no faces detected")
		return result, nil
	}

	for _, face := range faces {
		task := domain.FaceTask{SourceKey: key, Box: face.Box}
		if err := s.publisher.Publish(ctx, task); err != nil {
			log.Error("failed to publish face task", "box", face.Box.String(), "error", err)
			continue
		}
		result.Published++
		log.Debug("face task published", "box", face.Box.String(), "confidence", face.Confidence)
	}

	s.logAudit(ctx, key, result.Faces, nil)
	log.Info("faces detected", "faces", result.Faces, "published", result.Published)
	return result, nil
}

// HandleEvent processes every record of a storage notification independently
func (s *DetectorStage) HandleEvent(ctx context.Context, event domain.StorageEvent) []DetectResult {
	results := make([]DetectResult, 0, len(event.Records))
	for _, record := range event.Records {
		result, err := s.OnPhotoUploaded(ctx, record.Bucket(), record.Key())
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, *result)
	}
	return results
}

// HandleMessage consumes a storage notification delivered through a queue.
// The message is always acknowledged: this stage owns no retry.
func (s *DetectorStage) HandleMessage(ctx context.Context, msg queue.Message, ack queue.AckFunc) {
	defer func() {
		if err := ack(ctx); err != nil {
			s.logger.Error("failed to ack photo event", "message_id", msg.ID, "error", err)
		}
	}()

	var event domain.StorageEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		s.logger.Warn("malformed photo event, dropping", "message_id", msg.ID, "error", err)
		return
	}
	if len(event.Records) == 0 {
		s.logger.Warn("photo event without records, dropping", "message_id", msg.ID)
		return
	}

	s.HandleEvent(ctx, event)
}

func (s *DetectorStage) logAudit(ctx context.Context, key string, faces int, err error) {
	event := audit.Event{
		EventType: audit.EventFacesDetected,
		ObjectKey: key,
		Provider:  s.detector.Name(),
		Success:   err == nil,
		Metadata:  map[string]string{"faces_count": strconv.Itoa(faces)},
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.audit.Log(ctx, event)
}
