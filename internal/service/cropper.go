package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/audit"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/queue"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

const faceContentType = "image/jpeg"

var (
	// ErrTaskDropped marks a task that was acknowledged without producing a face
	ErrTaskDropped = errors.New("face task dropped")
)

// CropperStage cuts one face out of a photo per FaceTask and stores it
type CropperStage struct {
	store       storage.ObjectStore
	photoBucket string
	facesBucket string
	quality     int
	newKey      func() string
	audit       audit.Logger
	logger      *slog.Logger
}

func NewCropperStage(store storage.ObjectStore, photoBucket, facesBucket string, logger *slog.Logger) *CropperStage {
	return &CropperStage{
		store:       store,
		photoBucket: photoBucket,
		facesBucket: facesBucket,
		quality:     imaging.DefaultJPEGQuality,
		newKey:      newFaceKey,
		audit:       &audit.NoOpLogger{},
		logger:      logger.With("component", "cropper"),
	}
}

func (s *CropperStage) WithQuality(quality int) *CropperStage {
	s.quality = quality
	return s
}

func (s *CropperStage) WithAudit(logger audit.Logger) *CropperStage {
	s.audit = logger
	return s
}

// newFaceKey returns a random key; a redelivered task gets a new one
func newFaceKey() string {
	return uuid.New().String() + ".jpg"
}

// OnFaceTask crops task.Box out of the source photo and writes the face.
//
// Ack is called only after the face is stored, or when the task can never
// succeed (invalid box, undecodable photo, box outside the photo). Fetch and
// store failures leave the message unacknowledged so the queue redelivers it.
func (s *CropperStage) OnFaceTask(ctx context.Context, task domain.FaceTask, ack queue.AckFunc) (*domain.FaceObject, error) {
	log := s.logger.With("key", task.SourceKey, "box", task.Box.String())

	if err := task.Validate(); err != nil {
		log.Warn("invalid face task, dropping", "error", err)
		s.drop(ctx, ack, log)
		return nil, fmt.Errorf("%w: %w", ErrTaskDropped, err)
	}

	obj, err := s.store.Get(ctx, s.photoBucket, task.SourceKey)
	if err != nil {
		log.Error("failed to fetch photo, leaving task for redelivery", "error", err)
		return nil, fmt.Errorf("fetch photo %s: %w", task.SourceKey, err)
	}

	photo, err := imaging.Decode(obj.Data)
	if err != nil {
		log.Warn("photo cannot be decoded, dropping task", "error", err)
		s.drop(ctx, ack, log)
		return nil, fmt.Errorf("%w: %w", ErrTaskDropped, err)
	}

	data, err := imaging.CropJPEG(photo, task.Box, s.quality)
	if err != nil {
		if errors.Is(err, imaging.ErrBoxOutOfBounds) || errors.Is(err, domain.ErrInvalidBox) {
			log.Warn("box outside photo, dropping task", "width", photo.Width(), "height", photo.Height())
			s.logAudit(ctx, task.SourceKey, "", err)
			s.drop(ctx, ack, log)
			return nil, fmt.Errorf("%w: %w", ErrTaskDropped, err)
		}
		log.Error("failed to encode face crop", "error", err)
		return nil, fmt.Errorf("crop %s: %w", task.SourceKey, err)
	}

	face := &domain.FaceObject{
		Key:      s.newKey(),
		Metadata: map[string]string{domain.MetaOriginalPhoto: task.SourceKey},
	}

	if err := s.store.Put(ctx, s.facesBucket, face.Key, data, faceContentType, face.Metadata); err != nil {
		log.Error("failed to store face, leaving task for redelivery", "face_key", face.Key, "error", err)
		return nil, fmt.Errorf("store face %s: %w", face.Key, err)
	}

	// a crash here means redelivery and a duplicate face under a new key
	if err := ack(ctx); err != nil {
		log.Error("failed to ack face task", "face_key", face.Key, "error", err)
	}

	s.logAudit(ctx, task.SourceKey, face.Key, nil)
	log.Info("face stored", "face_key", face.Key, "bytes", len(data))
	return face, nil
}

// HandleMessage decodes a FaceTask from a queue message and processes it.
// Bodies that are not a task are acknowledged and dropped.
func (s *CropperStage) HandleMessage(ctx context.Context, msg queue.Message, ack queue.AckFunc) {
	var task domain.FaceTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		log := s.logger.With("message_id", msg.ID)
		log.Warn("malformed face task, dropping", "error", err)
		s.drop(ctx, ack, log)
		return
	}

	_, _ = s.OnFaceTask(ctx, task, ack)
}

func (s *CropperStage) drop(ctx context.Context, ack queue.AckFunc, log *slog.Logger) {
	if err := ack(ctx); err != nil {
		log.Error("failed to ack dropped task", "error", err)
	}
}

func (s *CropperStage) logAudit(ctx context.Context, sourceKey, faceKey string, err error) {
	event := audit.Event{
		EventType: audit.EventFaceCropped,
		ObjectKey: sourceKey,
		Success:   err == nil,
	}
	if faceKey != "" {
		event.Metadata = map[string]string{"face_key": faceKey}
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.audit.Log(ctx, event)
}
